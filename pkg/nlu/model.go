package nlu

import (
	"sync"
	"time"

	"github.com/parleybot/parley/pkg/models"
)

// Model is the immutable output of a training pass. All fields are built
// during Compile and never mutated afterwards, so a Model is safe for
// concurrent readers.
type Model struct {
	ChatbotID string
	TrainedAt time.Time

	intents    map[string]*models.Intent
	resolvers  map[string]resolver
	classifier *classifier
}

var _ models.CompiledModel = &Model{}

// Compile snapshots the chatbot's intents and dictionaries into a Model.
// Slot dictionary references are validated here: a slot naming a
// dictionary that does not exist for the chatbot fails the compile.
func Compile(
	chatbotID string,
	intents []*models.Intent,
	dicts []*models.DictSnapshot,
	catalog models.SysDictCatalog,
) (*Model, error) {
	resolvers := make(map[string]resolver, len(dicts))
	for _, d := range dicts {
		switch d.Kind {
		case models.DictKindVocab:
			resolvers[d.Name] = newVocabResolver(d.Words)
		case models.DictKindRegex:
			r, err := newRegexResolver(d.Patterns)
			if err != nil {
				return nil, err
			}
			resolvers[d.Name] = r
		case models.DictKindSystem:
			recognizer, ok := catalog.Recognizer(d.Name)
			if !ok {
				return nil, models.NewNotFoundError("system dictionary " + d.Name)
			}
			resolvers[d.Name] = &systemResolver{recognizer: recognizer}
		default:
			return nil, models.NewBadRequestError("unknown dictionary kind " + string(d.Kind))
		}
	}

	byName := make(map[string]*models.Intent, len(intents))
	for _, intent := range intents {
		for _, slot := range intent.Slots {
			if _, ok := resolvers[slot.DictName]; !ok {
				return nil, models.NewNotFoundError(
					"dictionary " + slot.DictName + " referenced by slot " + slot.Name,
				)
			}
		}
		byName[intent.Name] = intent
	}

	return &Model{
		ChatbotID:  chatbotID,
		TrainedAt:  time.Now(),
		intents:    byName,
		resolvers:  resolvers,
		classifier: newClassifier(intents),
	}, nil
}

func (m *Model) Classify(text string) (string, bool) {
	return m.classifier.Classify(text)
}

func (m *Model) Resolve(dictName, text string) ([]models.Span, error) {
	r, ok := m.resolvers[dictName]
	if !ok {
		return nil, models.NewNotFoundError("dictionary " + dictName)
	}
	return r.Resolve(text), nil
}

func (m *Model) Intent(name string) (*models.Intent, bool) {
	intent, ok := m.intents[name]
	return intent, ok
}

// Registry holds the active model per chatbot. Publish replaces the entry
// under the write lock, so readers observe either the fully-old or
// fully-new model.
type Registry struct {
	mu     sync.RWMutex
	active map[string]models.CompiledModel
}

var _ models.ModelRegistry = &Registry{}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]models.CompiledModel)}
}

func (r *Registry) Active(chatbotID string) (models.CompiledModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.active[chatbotID]
	return m, ok
}

func (r *Registry) Publish(chatbotID string, model models.CompiledModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[chatbotID] = model
}
