package srs

import (
	"sort"
	"time"

	"lexiquest/internal/content"
	"lexiquest/internal/models"
	"lexiquest/internal/store"
)

// intervals are the review gaps in days, indexed by the new box (box-1).
// Box 5 entries stay on the 30-day cycle.
var intervals = [...]int{1, 3, 7, 14, 30}

// DueWord pairs a word key with its schedule entry for session building
type DueWord struct {
	Key   string
	Entry models.SRSEntry
}

// Engine maintains the per-word review schedule. It keeps the full table in
// memory and persists it synchronously through the store on every mutation.
// All operations are total functions over the map; the only errors surfaced
// are storage write failures.
type Engine struct {
	store     *store.Store
	cache     *content.Cache
	profileID string
	entries   models.SRSMap
	now       func() time.Time
}

// NewEngine loads the review table for a profile
func NewEngine(st *store.Store, cache *content.Cache, profileID string) (*Engine, error) {
	entries, err := st.SRSMap(profileID)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:     st,
		cache:     cache,
		profileID: profileID,
		entries:   entries,
		now:       time.Now,
	}, nil
}

// Reload re-reads the table from the store, discarding the in-memory copy.
// Called after the reconciler replaces local state with a remote pull.
func (e *Engine) Reload() error {
	entries, err := e.store.SRSMap(e.profileID)
	if err != nil {
		return err
	}
	e.entries = entries
	return nil
}

// RegisterInteraction lazily creates a box-1 entry due in one day. Idempotent:
// an existing entry is left untouched.
func (e *Engine) RegisterInteraction(key string) error {
	if _, exists := e.entries[key]; exists {
		return nil
	}
	e.entries[key] = models.SRSEntry{
		Box:        models.MinBox,
		NextReview: e.now().AddDate(0, 0, intervals[0]),
	}
	return e.persist()
}

// RecordOutcome applies the graded transition rule. A missing entry is
// treated as a box-1 baseline before the rule is applied.
func (e *Engine) RecordOutcome(key string, success bool) (models.SRSEntry, error) {
	entry, exists := e.entries[key]
	if !exists {
		entry = models.SRSEntry{Box: models.MinBox}
	}

	if success {
		if entry.Box < models.MaxBox {
			entry.Box++
		}
	} else {
		entry.Box = models.MinBox
	}
	entry.NextReview = e.now().AddDate(0, 0, intervals[entry.Box-1])

	e.entries[key] = entry
	return entry, e.persist()
}

// MarkMemorized forces an entry into the terminal box, bypassing grading
func (e *Engine) MarkMemorized(key string) error {
	e.entries[key] = models.SRSEntry{
		Box:        models.MaxBox,
		NextReview: e.now().AddDate(0, 0, intervals[models.MaxBox-1]),
	}
	return e.persist()
}

// UnmarkMemorized resets an entry to box 1, due immediately
func (e *Engine) UnmarkMemorized(key string) error {
	e.entries[key] = models.SRSEntry{
		Box:        models.MinBox,
		NextReview: e.now(),
	}
	return e.persist()
}

// Entry returns the schedule entry for a word key
func (e *Engine) Entry(key string) (models.SRSEntry, bool) {
	entry, ok := e.entries[key]
	return entry, ok
}

// Entries returns a copy of the full review table
func (e *Engine) Entries() models.SRSMap {
	out := make(models.SRSMap, len(e.entries))
	for k, v := range e.entries {
		out[k] = v
	}
	return out
}

// DueWords returns every entry due at or before now, soonest first
func (e *Engine) DueWords(now time.Time) []DueWord {
	var due []DueWord
	for key, entry := range e.entries {
		if !entry.NextReview.After(now) {
			due = append(due, DueWord{Key: key, Entry: entry})
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Entry.NextReview.Equal(due[j].Entry.NextReview) {
			return due[i].Key < due[j].Key
		}
		return due[i].Entry.NextReview.Before(due[j].Entry.NextReview)
	})
	return due
}

// DueCount returns the number of entries due at or before now
func (e *Engine) DueCount(now time.Time) int {
	count := 0
	for _, entry := range e.entries {
		if !entry.NextReview.After(now) {
			count++
		}
	}
	return count
}

// DueCountForGrade counts due entries whose unit belongs to the given grade.
// Unscoped keys have no grade and are excluded.
func (e *Engine) DueCountForGrade(now time.Time, grade string) int {
	count := 0
	for key, entry := range e.entries {
		if entry.NextReview.After(now) {
			continue
		}
		unitID, _ := models.SplitWordKey(key)
		if unitID == "" {
			continue
		}
		if g, ok := e.cache.UnitGrade(unitID); ok && g == grade {
			count++
		}
	}
	return count
}

// MemorizedSet returns the keys of every entry in the terminal box, sorted
func (e *Engine) MemorizedSet() []string {
	var keys []string
	for key, entry := range e.entries {
		if entry.Memorized() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// persist writes the full table back through the store.
// TODO: batch writes behind a debounce once tables grow past a few thousand entries.
func (e *Engine) persist() error {
	return e.store.SaveSRSMap(e.profileID, e.entries)
}
