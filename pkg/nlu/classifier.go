package nlu

import (
	"regexp"
	"strings"

	"github.com/parleybot/parley/pkg/models"
)

// ClassifyThreshold is the minimum utterance coverage required before an
// intent is reported. Below it, classification returns none and the dialog
// engine falls back.
const ClassifyThreshold = 0.5

var placeholderRe = regexp.MustCompile(`\{[^{}]+\}`)

// classifier matches message text against the literal fragments of the
// training utterances. Placeholders ({slotName}) are wildcards: the
// fragments around them must appear in the text, the placeholder itself is
// satisfied by anything. This is a deliberately small lexical classifier;
// the dialog engine only depends on the classify(text) contract.
type classifier struct {
	intents []intentPatterns
}

type intentPatterns struct {
	name       string
	utterances [][]string
}

func newClassifier(intents []*models.Intent) *classifier {
	c := &classifier{}
	for _, intent := range intents {
		patterns := intentPatterns{name: intent.Name}
		for _, utter := range intent.Utterances {
			fragments := utteranceFragments(utter)
			if len(fragments) == 0 {
				continue
			}
			patterns.utterances = append(patterns.utterances, fragments)
		}
		if len(patterns.utterances) > 0 {
			c.intents = append(c.intents, patterns)
		}
	}
	return c
}

// utteranceFragments splits an utterance into the literal text between
// slot placeholders.
func utteranceFragments(utterance string) []string {
	var fragments []string
	for _, part := range placeholderRe.Split(utterance, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			fragments = append(fragments, part)
		}
	}
	return fragments
}

func (c *classifier) Classify(text string) (string, bool) {
	var (
		bestName  string
		bestScore float64
	)
	for _, intent := range c.intents {
		score := intent.score(text)
		if score > bestScore {
			bestName = intent.name
			bestScore = score
		}
	}
	if bestScore < ClassifyThreshold {
		return "", false
	}
	return bestName, true
}

// score is the best utterance coverage: the length-weighted share of an
// utterance's fragments found in the text.
func (p intentPatterns) score(text string) float64 {
	var best float64
	for _, fragments := range p.utterances {
		var total, matched int
		for _, f := range fragments {
			total += len(f)
			if strings.Contains(text, f) {
				matched += len(f)
			}
		}
		if total == 0 {
			continue
		}
		if s := float64(matched) / float64(total); s > best {
			best = s
		}
	}
	return best
}
