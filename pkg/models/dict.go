package models

import (
	"context"
	"time"
)

type DictKind string

const (
	DictKindVocab  DictKind = "vocab"
	DictKindRegex  DictKind = "regex"
	DictKindSystem DictKind = "system"
)

// Dict is a named resolver mapping text spans to canonical values.
// (chatbotID, name) is unique per chatbot; a name may not be redefined
// with a different kind.
type Dict struct {
	ChatbotID string    `json:"chatbot_id"`
	Name      string    `json:"name"`
	Kind      DictKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DictWord is a canonical vocabulary term with its synonyms. All synonyms
// and the term itself resolve to the canonical word.
type DictWord struct {
	Word     string   `json:"word"`
	Synonyms []string `json:"synonyms"`
}

// DictSnapshot is an immutable copy of one dictionary's content, taken for
// model compilation.
type DictSnapshot struct {
	Dict
	// Words maps canonical terms to their synonyms (vocab dictionaries).
	Words map[string][]string
	// Patterns in insertion order (regex dictionaries).
	Patterns []string
}

type DictStore interface {
	Create(ctx context.Context, dict *Dict) (*Dict, error)
	Delete(ctx context.Context, chatbotID, name string) error
	Get(ctx context.Context, chatbotID, name string) (*Dict, error)
	List(ctx context.Context, chatbotID string) ([]*Dict, error)
	PutWord(ctx context.Context, chatbotID, dictName string, word *DictWord) error
	PutPatterns(ctx context.Context, chatbotID, dictName string, patterns []string) error
	RefSysDict(ctx context.Context, chatbotID, name string) error
	UnrefSysDict(ctx context.Context, chatbotID, name string) error
	ListSysDicts(ctx context.Context, chatbotID string) ([]string, error)
	// Snapshot returns a consistent copy of every dictionary visible to the
	// chatbot, including referenced system dictionaries.
	Snapshot(ctx context.Context, chatbotID string) ([]*DictSnapshot, error)
}

// Span is a resolved occurrence within a message text. Offsets are byte
// positions into the original string.
type Span struct {
	Start int
	End   int
	Value string
}

// Recognizer is a built-in system dictionary resolver, keyed by a reserved
// name such as "@LOC" or "@TIME".
type Recognizer interface {
	Recognize(text string) []Span
}

// SysDictCatalog is the process-wide, read-only registry of built-in
// recognizers. Referencing or unreferencing a system dictionary mutates
// per-chatbot state only, never the catalog.
type SysDictCatalog interface {
	Has(name string) bool
	Names() []string
	Recognizer(name string) (Recognizer, bool)
}
