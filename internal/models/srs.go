package models

import (
	"strings"
	"time"
)

// Leitner box bounds. Box 5 is the memorized terminal state; entries there
// are still reviewed on a 30-day interval but count as mastered.
const (
	MinBox = 1
	MaxBox = 5
)

// SRSEntry is the per-word review schedule, keyed by a word key
type SRSEntry struct {
	Box        int       `json:"box"`
	NextReview time.Time `json:"nextReview"`
}

// SRSMap is the full per-learner review table, keyed by word key
type SRSMap map[string]SRSEntry

// Memorized reports whether the entry has reached the terminal box
func (e SRSEntry) Memorized() bool {
	return e.Box >= MaxBox
}

// WordKey builds the stable join key between content and per-user progress:
// "unitId|english" when the word belongs to a unit, else the bare english
// term. This exact composition is a wire contract and must not change.
func WordKey(unitID, english string) string {
	if unitID == "" {
		return english
	}
	return unitID + "|" + english
}

// SplitWordKey returns the unit id and english term encoded in a word key.
// Unscoped keys yield an empty unit id.
func SplitWordKey(key string) (unitID, english string) {
	if i := strings.Index(key, "|"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}
