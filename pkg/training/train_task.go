package training

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TrainTask executes one queued training job. Failures are recorded on the
// job rather than returned, so the router never re-delivers a compile.
type TrainTask struct {
	coordinator *Coordinator
}

func NewTrainTask(coordinator *Coordinator) *TrainTask {
	return &TrainTask{coordinator: coordinator}
}

func (t *TrainTask) Execute(ctx context.Context, msg *message.Message) error {
	var payload trainPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal train task payload: %w", err)
	}
	if payload.ChatbotID == "" {
		payload.ChatbotID = msg.Metadata["chatbot_id"]
	}
	if payload.ChatbotID == "" {
		return fmt.Errorf("train task missing chatbot_id: %s", msg.UUID)
	}

	t.coordinator.runJob(ctx, payload.ChatbotID)
	return nil
}

func (t *TrainTask) HandleError(err error) {
	log.Errorf("TrainTask error: %s", err)
}
