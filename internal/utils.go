package internal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WireTimeFormat is the timestamp layout used for createdate/updatedate
// fields on the wire.
const WireTimeFormat = "2006-01-02 15:04:05"

// GenerateID returns a new opaque identifier: 32 uppercase hex characters.
func GenerateID() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}

// FormatWireTime formats a timestamp for wire payloads. Zero times render
// as an empty string.
func FormatWireTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(WireTimeFormat)
}

// SplitSynonyms splits a `;`-separated synonym list, dropping empty and
// whitespace-only items.
func SplitSynonyms(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	synonyms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			synonyms = append(synonyms, p)
		}
	}
	return synonyms
}
