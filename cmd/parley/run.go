package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parleybot/parley/pkg/auth"

	"github.com/parleybot/parley/config"
	"github.com/parleybot/parley/pkg/dialog"
	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/nlu"
	"github.com/parleybot/parley/pkg/rpc"
	"github.com/parleybot/parley/pkg/server"
	"github.com/parleybot/parley/pkg/store"
	"github.com/parleybot/parley/pkg/training"
)

const shutdownTimeout = 5 * time.Second

// run is the entrypoint for the parley server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring parley: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting parley server version %s", config.VersionString)

	config.SetLogLevel(cfg)
	appState := NewAppState(cfg)

	rpcSrv := rpc.Create(appState)
	if err := rpcSrv.Listen(); err != nil {
		log.Fatal(err)
	}

	httpSrv := server.Create(appState)
	setupSignalHandler(rpcSrv, httpSrv, appState)

	log.Infof("Listening on: %s", httpSrv.Addr)
	err = httpSrv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// NewAppState creates an AppState struct from the config file / ENV,
// wires the in-memory stores and the training pipeline, and builds the
// dialog engine.
func NewAppState(cfg *config.Config) *models.AppState {
	catalog := nlu.NewSysDictCatalog()
	dictStore := store.NewDictStore(catalog)

	appState := &models.AppState{
		DictStore:    dictStore,
		IntentStore:  store.NewIntentStore(dictStore),
		SessionStore: store.NewSessionStore(),
		SysDicts:     catalog,
		Models:       nlu.NewRegistry(),
		Config:       cfg,
	}
	appState.Engine = dialog.NewEngine(appState)

	training.RunTaskRouter(context.Background(), appState)

	return appState
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		dump, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Fatalf("Error dumping config: %s", err)
		}
		fmt.Println(string(dump))
		os.Exit(0)
	}
	if generateKey {
		fmt.Println(auth.GenerateJWT(cfg))
		os.Exit(0)
	}
}

// setupSignalHandler shuts both listeners down on termination and drains
// the task router.
func setupSignalHandler(rpcSrv *rpc.Server, httpSrv *http.Server, appState *models.AppState) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Errorf("Error shutting down HTTP server: %v", err)
		}
		if err := rpcSrv.Close(); err != nil {
			log.Errorf("Error closing RPC server: %v", err)
		}
		if appState.TaskRouter != nil {
			if err := appState.TaskRouter.Close(); err != nil {
				log.Errorf("Error closing task router: %v", err)
			}
		}
		os.Exit(0)
	}()
}
