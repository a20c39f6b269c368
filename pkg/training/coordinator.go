package training

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/nlu"
)

const DefaultJobTimeout = 5 * time.Minute

// Coordinator owns the per-chatbot training job table and runs compiles in
// the background via the task router. State machine per chatbot:
// idle -> running -> {succeeded, failed} -> idle (re-entrant).
type Coordinator struct {
	as        *models.AppState
	publisher models.TaskPublisher
	timeout   time.Duration

	mu   sync.Mutex
	jobs map[string]*models.TrainingJob
}

var _ models.TrainingService = &Coordinator{}

func NewCoordinator(appState *models.AppState, publisher models.TaskPublisher) *Coordinator {
	timeout := time.Duration(appState.Config.Training.JobTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Coordinator{
		as:        appState,
		publisher: publisher,
		timeout:   timeout,
		jobs:      make(map[string]*models.TrainingJob),
	}
}

type trainPayload struct {
	ChatbotID string `json:"chatbot_id"`
}

// Train accepts a new job for the chatbot and hands it to the task router.
// The call reports only whether the job was accepted; compile failures
// surface asynchronously via Status.
func (c *Coordinator) Train(ctx context.Context, chatbotID string) error {
	if chatbotID == "" {
		return models.NewBadRequestError("chatbotID is required")
	}

	intents, err := c.as.IntentStore.List(ctx, chatbotID)
	if err != nil {
		return err
	}
	if len(intents) == 0 {
		return models.NewBadRequestError("nothing to train: chatbot " + chatbotID + " has no intents")
	}

	c.mu.Lock()
	if job, ok := c.jobs[chatbotID]; ok && job.State == models.TrainingStateRunning {
		c.mu.Unlock()
		return models.NewConflictError("training already running for chatbot " + chatbotID)
	}
	c.jobs[chatbotID] = &models.TrainingJob{
		ChatbotID: chatbotID,
		State:     models.TrainingStateRunning,
		StartedAt: time.Now(),
	}
	c.mu.Unlock()

	err = c.publisher.Publish(
		models.ModelTrainerTopic,
		map[string]string{"chatbot_id": chatbotID},
		trainPayload{ChatbotID: chatbotID},
	)
	if err != nil {
		c.finish(chatbotID, err)
		return err
	}

	log.Infof("training job accepted for chatbot %s", chatbotID)
	return nil
}

// Status answers immediately regardless of job progress. A chatbot with no
// job history reports idle.
func (c *Coordinator) Status(_ context.Context, chatbotID string) (*models.TrainingJob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[chatbotID]
	if !ok {
		return &models.TrainingJob{ChatbotID: chatbotID, State: models.TrainingStateIdle}, nil
	}
	copied := *job
	return &copied, nil
}

func (c *Coordinator) IsRunning(chatbotID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[chatbotID]
	return ok && job.State == models.TrainingStateRunning
}

// runJob compiles the chatbot's configuration and publishes the model. A
// compile exceeding the configured timeout is force-failed; the previously
// published model, if any, stays active.
func (c *Coordinator) runJob(ctx context.Context, chatbotID string) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if ctx.Err() != nil {
		c.finish(chatbotID, fmt.Errorf("training timed out after %s", c.timeout))
		return
	}

	type result struct {
		model *nlu.Model
		err   error
	}
	done := make(chan result, 1)
	go func() {
		model, err := c.compile(ctx, chatbotID)
		done <- result{model: model, err: err}
	}()

	select {
	case <-ctx.Done():
		c.finish(chatbotID, fmt.Errorf("training timed out after %s", c.timeout))
	case r := <-done:
		if r.err != nil {
			c.finish(chatbotID, r.err)
			return
		}
		// Atomic swap: concurrent chat calls see either the old model or
		// the new one, never a half-built model.
		c.as.Models.Publish(chatbotID, r.model)
		c.finish(chatbotID, nil)
	}
}

// compile reads the intent registry and the dictionary store under their
// own locks; each read is internally consistent. A write landing between
// the two reads can leave the pair mismatched — that compile fails, the
// previous model stays active and the next train sees the settled
// configuration.
func (c *Coordinator) compile(ctx context.Context, chatbotID string) (*nlu.Model, error) {
	intents, err := c.as.IntentStore.List(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	dicts, err := c.as.DictStore.Snapshot(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	return nlu.Compile(chatbotID, intents, dicts, c.as.SysDicts)
}

func (c *Coordinator) finish(chatbotID string, jobErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[chatbotID]
	if !ok {
		return
	}
	job.FinishedAt = time.Now()
	if jobErr != nil {
		job.State = models.TrainingStateFailed
		job.Error = jobErr.Error()
		log.Errorf("training failed for chatbot %s: %v", chatbotID, jobErr)
		return
	}
	job.State = models.TrainingStateSucceeded
	job.Error = ""
	log.Infof("training succeeded for chatbot %s", chatbotID)
}
