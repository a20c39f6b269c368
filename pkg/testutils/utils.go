package testutils

import (
	"github.com/brianvoe/gofakeit/v6"

	"github.com/parleybot/parley/config"
	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/nlu"
	"github.com/parleybot/parley/pkg/store"
)

// NewTestConfig returns a config with the shipped defaults and ports set
// to 0 so test servers bind ephemeral ports.
func NewTestConfig() *config.Config {
	return &config.Config{
		RPC: config.RPCConfig{
			Host:         "127.0.0.1",
			Port:         0,
			MaxFrameSize: 1 << 20,
		},
		Server: config.ServerConfig{
			Port: 0,
		},
		Log: config.LogConfig{
			Level: "debug",
		},
		Training: config.TrainingConfig{
			JobTimeoutSeconds: 30,
			QueueBufferSize:   16,
		},
		Dialog: config.DialogConfig{
			FallbackMessage: "我没有理解您的意思",
			ResolvedMessage: "好的，已经为您记下了",
		},
	}
}

// NewTestAppState wires the in-memory stores, the system dictionary
// catalog and an empty model registry. Trainer and Engine are left for the
// test to install as needed.
func NewTestAppState() *models.AppState {
	catalog := nlu.NewSysDictCatalog()
	dictStore := store.NewDictStore(catalog)
	appState := &models.AppState{
		DictStore:    dictStore,
		IntentStore:  store.NewIntentStore(dictStore),
		SessionStore: store.NewSessionStore(),
		SysDicts:     catalog,
		Models:       nlu.NewRegistry(),
		Config:       NewTestConfig(),
	}
	return appState
}

func GenerateRandomChatbotID() string {
	return gofakeit.LetterN(16)
}

func GenerateRandomUID() string {
	return gofakeit.Username()
}

func GenerateRandomSessionID() string {
	return internal.GenerateID()
}
