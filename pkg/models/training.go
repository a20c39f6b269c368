package models

import (
	"context"
	"time"
)

type TrainingState string

const (
	TrainingStateIdle      TrainingState = "idle"
	TrainingStateRunning   TrainingState = "running"
	TrainingStateSucceeded TrainingState = "succeeded"
	TrainingStateFailed    TrainingState = "failed"
)

// TrainingJob tracks the asynchronous compile of one chatbot's
// configuration into a queryable model. One active job per chatbot.
type TrainingJob struct {
	ChatbotID  string        `json:"chatbot_id"`
	State      TrainingState `json:"state"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

type TrainingService interface {
	// Train accepts a new job unless one is already running for the
	// chatbot. The job itself runs in the background; observe it via Status.
	Train(ctx context.Context, chatbotID string) error
	Status(ctx context.Context, chatbotID string) (*TrainingJob, error)
	IsRunning(chatbotID string) bool
}

// CompiledModel is the immutable output of a training pass: intent
// classification plus span resolution over the dictionaries that were
// visible at compile time.
type CompiledModel interface {
	// Classify returns the best-matching intent name for text, or false if
	// no intent clears the confidence floor.
	Classify(text string) (string, bool)
	Resolve(dictName, text string) ([]Span, error)
	Intent(name string) (*Intent, bool)
}

// ModelRegistry holds the active model per chatbot. Publish swaps models
// atomically: concurrent readers see either the old or the new model,
// never a partial one.
type ModelRegistry interface {
	Active(chatbotID string) (CompiledModel, bool)
	Publish(chatbotID string, model CompiledModel)
}
