package models

import (
	"context"
	"time"
)

// Intent is a recognizable user goal with ordered slots and training
// utterances. The ID is assigned at creation and immutable; the name is
// unique per chatbot.
type Intent struct {
	ID         string       `json:"id"`
	ChatbotID  string       `json:"chatbot_id"`
	Name       string       `json:"name"`
	Slots      []IntentSlot `json:"slots"`
	Utterances []string     `json:"utterances"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// IntentSlot is a named, dictionary-bound piece of information an intent
// needs filled. Slot order is insertion order and drives the "next slot to
// ask about" policy of the dialog engine.
type IntentSlot struct {
	Name     string `json:"name"`
	Requires bool   `json:"requires"`
	Question string `json:"question"`
	DictName string `json:"dictname"`
}

type IntentStore interface {
	Create(ctx context.Context, intent *Intent) (*Intent, error)
	// Delete removes the intent along with its slots and utterances.
	Delete(ctx context.Context, chatbotID, name string) error
	Get(ctx context.Context, chatbotID, name string) (*Intent, error)
	List(ctx context.Context, chatbotID string) ([]*Intent, error)
	AddSlot(ctx context.Context, chatbotID, intentName string, slot *IntentSlot) error
	AddUtterance(ctx context.Context, chatbotID, intentName, utterance string) error
}
