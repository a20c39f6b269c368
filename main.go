package main

import (
	cmd "github.com/parleybot/parley/cmd/parley"
	"github.com/parleybot/parley/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting parley")
	cmd.Execute()
}
