package nlu

import (
	"regexp"
	"sort"
	"strings"

	"github.com/parleybot/parley/pkg/models"
)

// resolver resolves raw message text to spans of canonical values.
type resolver interface {
	Resolve(text string) []models.Span
}

type vocabTerm struct {
	surface   string
	canonical string
}

// vocabResolver scans text for canonical terms and synonyms,
// longest-match-first so longer surfaces are never shadowed by their
// substrings. Every surface resolves to its canonical term.
type vocabResolver struct {
	terms []vocabTerm
}

func newVocabResolver(words map[string][]string) *vocabResolver {
	var terms []vocabTerm
	for canonical, synonyms := range words {
		terms = append(terms, vocabTerm{surface: canonical, canonical: canonical})
		for _, s := range synonyms {
			if s == "" || s == canonical {
				continue
			}
			terms = append(terms, vocabTerm{surface: s, canonical: canonical})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i].surface) != len(terms[j].surface) {
			return len(terms[i].surface) > len(terms[j].surface)
		}
		return terms[i].surface < terms[j].surface
	})
	return &vocabResolver{terms: terms}
}

func (r *vocabResolver) Resolve(text string) []models.Span {
	taken := make([]bool, len(text))
	var spans []models.Span

	for _, term := range r.terms {
		for start := 0; start < len(text); {
			idx := strings.Index(text[start:], term.surface)
			if idx < 0 {
				break
			}
			s := start + idx
			e := s + len(term.surface)
			if regionFree(taken, s, e) {
				markTaken(taken, s, e)
				spans = append(spans, models.Span{Start: s, End: e, Value: term.canonical})
				start = e
			} else {
				start = s + 1
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

func regionFree(taken []bool, s, e int) bool {
	for i := s; i < e; i++ {
		if taken[i] {
			return false
		}
	}
	return true
}

func markTaken(taken []bool, s, e int) {
	for i := s; i < e; i++ {
		taken[i] = true
	}
}

// regexResolver applies patterns in insertion order; the first pattern
// producing a match wins and the matched substrings are the values.
type regexResolver struct {
	patterns []*regexp.Regexp
}

func newRegexResolver(patterns []string) (*regexResolver, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, models.NewBadRequestError("invalid pattern " + p + ": " + err.Error())
		}
		compiled = append(compiled, re)
	}
	return &regexResolver{patterns: compiled}, nil
}

func (r *regexResolver) Resolve(text string) []models.Span {
	for _, re := range r.patterns {
		locs := re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		spans := make([]models.Span, 0, len(locs))
		for _, loc := range locs {
			spans = append(spans, models.Span{
				Start: loc[0],
				End:   loc[1],
				Value: text[loc[0]:loc[1]],
			})
		}
		return spans
	}
	return nil
}

// systemResolver delegates to a built-in recognizer from the catalog.
type systemResolver struct {
	recognizer models.Recognizer
}

func (r *systemResolver) Resolve(text string) []models.Span {
	return r.recognizer.Recognize(text)
}
