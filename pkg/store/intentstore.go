package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
)

// NewIntentStore returns an IntentStore owning intents, their slots and
// utterances. Slot dictionary references are validated against dicts at
// AddSlot time.
func NewIntentStore(dicts models.DictStore) models.IntentStore {
	return &intentStore{
		dicts:   dicts,
		intents: make(map[string]map[string]*models.Intent),
	}
}

type intentStore struct {
	mu    sync.RWMutex
	dicts models.DictStore
	// chatbotID -> intent name -> intent
	intents map[string]map[string]*models.Intent
}

func (s *intentStore) Create(_ context.Context, intent *models.Intent) (*models.Intent, error) {
	if intent.ChatbotID == "" || intent.Name == "" {
		return nil, models.NewBadRequestError("chatbotID and intent name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bot := s.intents[intent.ChatbotID]
	if bot == nil {
		bot = make(map[string]*models.Intent)
		s.intents[intent.ChatbotID] = bot
	}
	if _, ok := bot[intent.Name]; ok {
		return nil, models.NewConflictError("intent " + intent.Name + " already exists")
	}

	now := time.Now()
	created := &models.Intent{
		ID:        internal.GenerateID(),
		ChatbotID: intent.ChatbotID,
		Name:      intent.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	bot[intent.Name] = created

	return copyIntent(created), nil
}

// Delete removes the intent and cascades to its slots and utterances,
// which the intent record owns.
func (s *intentStore) Delete(_ context.Context, chatbotID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bot := s.intents[chatbotID]
	if _, ok := bot[name]; !ok {
		return models.NewNotFoundError("intent " + name)
	}
	delete(bot, name)
	return nil
}

func (s *intentStore) Get(_ context.Context, chatbotID, name string) (*models.Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	intent, ok := s.intents[chatbotID][name]
	if !ok {
		return nil, models.NewNotFoundError("intent " + name)
	}
	return copyIntent(intent), nil
}

func (s *intentStore) List(_ context.Context, chatbotID string) ([]*models.Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bot := s.intents[chatbotID]
	intents := make([]*models.Intent, 0, len(bot))
	for _, intent := range bot {
		intents = append(intents, copyIntent(intent))
	}
	// Stable order: oldest first.
	sortIntents(intents)
	return intents, nil
}

func (s *intentStore) AddSlot(ctx context.Context, chatbotID, intentName string, slot *models.IntentSlot) error {
	if slot == nil || slot.Name == "" {
		return models.NewBadRequestError("slot name is required")
	}
	if slot.DictName == "" {
		return models.NewBadRequestError("slot " + slot.Name + " must reference a dictionary")
	}
	if err := s.checkDictReference(ctx, chatbotID, slot.DictName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[chatbotID][intentName]
	if !ok {
		return models.NewNotFoundError("intent " + intentName)
	}
	for _, existing := range intent.Slots {
		if existing.Name == slot.Name {
			return models.NewConflictError("slot " + slot.Name + " already exists on intent " + intentName)
		}
	}

	intent.Slots = append(intent.Slots, *slot)
	intent.UpdatedAt = time.Now()
	return nil
}

func (s *intentStore) AddUtterance(_ context.Context, chatbotID, intentName, utterance string) error {
	if utterance == "" {
		return models.NewBadRequestError("utterance is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[chatbotID][intentName]
	if !ok {
		return models.NewNotFoundError("intent " + intentName)
	}
	for _, existing := range intent.Utterances {
		if existing == utterance {
			return nil
		}
	}

	intent.Utterances = append(intent.Utterances, utterance)
	intent.UpdatedAt = time.Now()
	return nil
}

// checkDictReference verifies the slot's dictionary exists for the
// chatbot, either as a custom dictionary or a referenced system one.
func (s *intentStore) checkDictReference(ctx context.Context, chatbotID, dictName string) error {
	if _, err := s.dicts.Get(ctx, chatbotID, dictName); err == nil {
		return nil
	}
	sysdicts, err := s.dicts.ListSysDicts(ctx, chatbotID)
	if err != nil {
		return err
	}
	for _, name := range sysdicts {
		if name == dictName {
			return nil
		}
	}
	return models.NewNotFoundError("dictionary " + dictName)
}

func copyIntent(intent *models.Intent) *models.Intent {
	copied := *intent
	copied.Slots = make([]models.IntentSlot, len(intent.Slots))
	copy(copied.Slots, intent.Slots)
	copied.Utterances = make([]string, len(intent.Utterances))
	copy(copied.Utterances, intent.Utterances)
	return &copied
}

func sortIntents(intents []*models.Intent) {
	sort.Slice(intents, func(i, j int) bool {
		if !intents[i].CreatedAt.Equal(intents[j].CreatedAt) {
			return intents[i].CreatedAt.Before(intents[j].CreatedAt)
		}
		return intents[i].Name < intents[j].Name
	})
}
