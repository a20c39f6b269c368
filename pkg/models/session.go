package models

import (
	"context"
	"time"
)

// SessionKey identifies one resumable conversation. Put is idempotent per
// key: repeated calls before resolution return the same session.
type SessionKey struct {
	ChatbotID string `json:"chatbot_id"`
	UID       string `json:"uid"`
	Channel   string `json:"channel"`
	Branch    string `json:"branch"`
}

// ChatSession is a stateful conversation instance. Entities are a snapshot
// of the bound intent's slots taken when the intent is classified; later
// edits to the intent do not alter an in-flight session.
type ChatSession struct {
	ID         string    `json:"id"`
	ChatbotID  string    `json:"chatbot_id"`
	UID        string    `json:"uid"`
	Channel    string    `json:"channel"`
	Branch     string    `json:"branch"`
	IntentName string    `json:"intent_name"`
	Resolved   bool      `json:"resolved"`
	Entities   []Entity  `json:"entities"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Entity is the per-session, per-slot runtime value. Val starts empty and
// is filled by dictionary resolution; once non-empty it is never cleared.
// Question is pinned from the slot at snapshot time so in-flight prompts
// survive later intent edits.
type Entity struct {
	Name     string `json:"name"`
	Val      string `json:"val"`
	Requires bool   `json:"requires"`
	DictName string `json:"dictname"`
	Question string `json:"question,omitempty"`
}

// ChatMessage is one turn's outbound message.
type ChatMessage struct {
	Receiver    string `json:"receiver"`
	TextMessage string `json:"text_message"`
	IsFallback  bool   `json:"is_fallback"`
	IsProactive bool   `json:"is_proactive"`
}

type SessionStore interface {
	// Put looks up the session for key, creating it if absent.
	Put(ctx context.Context, key SessionKey) (*ChatSession, error)
	Get(ctx context.Context, id string) (*ChatSession, error)
	Update(ctx context.Context, session *ChatSession) error
}

// DialogEngine runs one turn of the slot-filling conversation for the
// session identified by sessionID.
type DialogEngine interface {
	Chat(ctx context.Context, sessionID, text string) (*ChatSession, *ChatMessage, error)
}
