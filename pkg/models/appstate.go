package models

import (
	"github.com/parleybot/parley/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	DictStore     DictStore
	IntentStore   IntentStore
	SessionStore  SessionStore
	SysDicts      SysDictCatalog
	Models        ModelRegistry
	Trainer       TrainingService
	Engine        DialogEngine
	TaskRouter    TaskRouter
	TaskPublisher TaskPublisher
	Config        *config.Config
}
