package store

import (
	"context"
	"sync"
	"time"

	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
)

// NewSessionStore returns a SessionStore with the lookup-or-create
// semantics of putSession: one in-progress session per
// (chatbotID, uid, channel, branch) tuple.
func NewSessionStore() models.SessionStore {
	return &sessionStore{
		byID:  make(map[string]*models.ChatSession),
		byKey: make(map[models.SessionKey]string),
	}
}

type sessionStore struct {
	mu   sync.RWMutex
	byID map[string]*models.ChatSession
	// byKey indexes the in-progress session per composite tuple, making
	// Put idempotent and preventing orphaned parallel sessions.
	byKey map[models.SessionKey]string
}

func (s *sessionStore) Put(_ context.Context, key models.SessionKey) (*models.ChatSession, error) {
	if key.ChatbotID == "" || key.UID == "" {
		return nil, models.NewBadRequestError("chatbotID and uid are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[key]; ok {
		existing := s.byID[id]
		// Idempotent continuation applies to in-progress sessions only; a
		// resolved session makes way for a fresh one.
		if !existing.Resolved {
			return copySession(existing), nil
		}
	}

	now := time.Now()
	session := &models.ChatSession{
		ID:        internal.GenerateID(),
		ChatbotID: key.ChatbotID,
		UID:       key.UID,
		Channel:   key.Channel,
		Branch:    key.Branch,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[session.ID] = session
	s.byKey[key] = session.ID

	return copySession(session), nil
}

func (s *sessionStore) Get(_ context.Context, id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("session " + id)
	}
	return copySession(session), nil
}

func (s *sessionStore) Update(_ context.Context, session *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[session.ID]; !ok {
		return models.NewNotFoundError("session " + session.ID)
	}

	updated := copySession(session)
	updated.UpdatedAt = time.Now()
	s.byID[session.ID] = updated
	return nil
}

func copySession(session *models.ChatSession) *models.ChatSession {
	copied := *session
	copied.Entities = make([]models.Entity, len(session.Entities))
	copy(copied.Entities, session.Entities)
	return &copied
}
