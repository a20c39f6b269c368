package store

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/parleybot/parley/pkg/models"
)

// NewDictStore returns a DictStore holding vocabulary and regex
// dictionaries per chatbot, plus the per-chatbot reference table over the
// process-wide system dictionary catalog. The persistence engine is out of
// scope for this service, so state lives in process memory behind a
// read-write lock; Snapshot hands the training compiler a consistent copy.
func NewDictStore(catalog models.SysDictCatalog) models.DictStore {
	return &dictStore{
		catalog: catalog,
		dicts:   make(map[string]map[string]*dictRecord),
		sysRefs: make(map[string]map[string]int),
	}
}

type dictRecord struct {
	dict models.Dict
	// words maps canonical terms to their synonyms, insertion order of
	// synonyms preserved.
	words map[string][]string
	// patterns in insertion order.
	patterns []string
}

type dictStore struct {
	mu      sync.RWMutex
	catalog models.SysDictCatalog
	// chatbotID -> dict name -> record
	dicts map[string]map[string]*dictRecord
	// chatbotID -> system dict name -> reference count
	sysRefs map[string]map[string]int
}

func (s *dictStore) Create(_ context.Context, dict *models.Dict) (*models.Dict, error) {
	if dict.ChatbotID == "" || dict.Name == "" {
		return nil, models.NewBadRequestError("chatbotID and dictionary name are required")
	}
	if dict.Kind == "" {
		dict.Kind = models.DictKindVocab
	}
	if dict.Kind != models.DictKindVocab && dict.Kind != models.DictKindRegex {
		return nil, models.NewBadRequestError("cannot create dictionary of kind " + string(dict.Kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bot := s.dicts[dict.ChatbotID]
	if bot == nil {
		bot = make(map[string]*dictRecord)
		s.dicts[dict.ChatbotID] = bot
	}
	if existing, ok := bot[dict.Name]; ok {
		if existing.dict.Kind != dict.Kind {
			return nil, models.NewConflictError(
				"dictionary " + dict.Name + " already exists with kind " + string(existing.dict.Kind),
			)
		}
		// Recreating with the same kind is a no-op.
		d := existing.dict
		return &d, nil
	}

	now := time.Now()
	record := &dictRecord{
		dict: models.Dict{
			ChatbotID: dict.ChatbotID,
			Name:      dict.Name,
			Kind:      dict.Kind,
			CreatedAt: now,
			UpdatedAt: now,
		},
		words: make(map[string][]string),
	}
	bot[dict.Name] = record

	d := record.dict
	return &d, nil
}

func (s *dictStore) Delete(_ context.Context, chatbotID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bot := s.dicts[chatbotID]
	if _, ok := bot[name]; !ok {
		return models.NewNotFoundError("dictionary " + name)
	}
	delete(bot, name)
	return nil
}

func (s *dictStore) Get(_ context.Context, chatbotID, name string) (*models.Dict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.dicts[chatbotID][name]
	if !ok {
		return nil, models.NewNotFoundError("dictionary " + name)
	}
	d := record.dict
	return &d, nil
}

func (s *dictStore) List(_ context.Context, chatbotID string) ([]*models.Dict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bot := s.dicts[chatbotID]
	dicts := make([]*models.Dict, 0, len(bot))
	for _, record := range bot {
		d := record.dict
		dicts = append(dicts, &d)
	}
	sort.Slice(dicts, func(i, j int) bool { return dicts[i].Name < dicts[j].Name })
	return dicts, nil
}

func (s *dictStore) PutWord(_ context.Context, chatbotID, dictName string, word *models.DictWord) error {
	if word == nil || word.Word == "" {
		return models.NewBadRequestError("word is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.dicts[chatbotID][dictName]
	if !ok {
		return models.NewNotFoundError("dictionary " + dictName)
	}
	if record.dict.Kind != models.DictKindVocab {
		return models.NewBadRequestError("dictionary " + dictName + " is not a vocabulary dictionary")
	}

	synonyms := make([]string, len(word.Synonyms))
	copy(synonyms, word.Synonyms)
	record.words[word.Word] = synonyms
	record.dict.UpdatedAt = time.Now()
	return nil
}

func (s *dictStore) PutPatterns(_ context.Context, chatbotID, dictName string, patterns []string) error {
	if len(patterns) == 0 {
		return models.NewBadRequestError("at least one pattern is required")
	}
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return models.NewBadRequestError("invalid pattern " + p + ": " + err.Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.dicts[chatbotID][dictName]
	if !ok {
		return models.NewNotFoundError("dictionary " + dictName)
	}
	if record.dict.Kind != models.DictKindRegex {
		return models.NewBadRequestError("dictionary " + dictName + " is not a regex dictionary")
	}

	record.patterns = append(record.patterns, patterns...)
	record.dict.UpdatedAt = time.Now()
	return nil
}

func (s *dictStore) RefSysDict(_ context.Context, chatbotID, name string) error {
	if !s.catalog.Has(name) {
		return models.NewNotFoundError("system dictionary " + name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	refs := s.sysRefs[chatbotID]
	if refs == nil {
		refs = make(map[string]int)
		s.sysRefs[chatbotID] = refs
	}
	refs[name]++
	return nil
}

func (s *dictStore) UnrefSysDict(_ context.Context, chatbotID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := s.sysRefs[chatbotID]
	if refs[name] == 0 {
		return models.NewNotFoundError("system dictionary reference " + name)
	}
	refs[name]--
	if refs[name] == 0 {
		delete(refs, name)
	}
	return nil
}

func (s *dictStore) ListSysDicts(_ context.Context, chatbotID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := s.sysRefs[chatbotID]
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *dictStore) Snapshot(_ context.Context, chatbotID string) ([]*models.DictSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snapshots []*models.DictSnapshot
	for _, record := range s.dicts[chatbotID] {
		snapshot := &models.DictSnapshot{
			Dict:     record.dict,
			Words:    make(map[string][]string, len(record.words)),
			Patterns: make([]string, len(record.patterns)),
		}
		for word, synonyms := range record.words {
			copied := make([]string, len(synonyms))
			copy(copied, synonyms)
			snapshot.Words[word] = copied
		}
		copy(snapshot.Patterns, record.patterns)
		snapshots = append(snapshots, snapshot)
	}
	for name := range s.sysRefs[chatbotID] {
		snapshots = append(snapshots, &models.DictSnapshot{
			Dict: models.Dict{ChatbotID: chatbotID, Name: name, Kind: models.DictKindSystem},
		})
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Name < snapshots[j].Name })
	return snapshots, nil
}
