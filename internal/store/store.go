package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lexiquest/internal/database"
	"lexiquest/internal/models"
)

// Record kinds. One logical JSON record is stored per (profile, kind).
const (
	KindProfile   = "profile"
	KindStats     = "stats"
	KindSRS       = "srs"
	KindBookmarks = "bookmarks"
	KindQuests    = "quests"
	KindSettings  = "settings"
	KindTutorial  = "tutorial"
	KindSnapshot  = "snapshot"

	// KindSchemaVersion is database-wide, stored under metaProfileID.
	KindSchemaVersion = "schema_version"
)

// metaProfileID keys records that belong to the database, not to a profile.
const metaProfileID = "_meta"

// CurrentSchemaVersion is the record-payload layout this build writes.
const CurrentSchemaVersion = 1

// Store is the only component that touches SQL. Every getter tolerates both
// "not present" and "corrupt payload" by returning the documented default;
// a parse failure is logged and never propagated to the caller.
type Store struct {
	db *database.DB
}

// New creates a new store over an initialized database
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// getPayload returns the raw payload for a record, or nil when absent
func (s *Store) getPayload(profileID, kind string) ([]byte, error) {
	var payload []byte
	query := `SELECT payload FROM records WHERE profile_id = ? AND kind = ?`
	err := s.db.QueryRow(query, profileID, kind).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s/%s: %w", profileID, kind, err)
	}
	return payload, nil
}

// putPayload upserts the raw payload for a record
func (s *Store) putPayload(profileID, kind string, payload []byte) error {
	_, err := s.db.Exec(s.db.Dialect.UpsertRecord(), profileID, kind, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write record %s/%s: %w", profileID, kind, err)
	}
	return nil
}

// load unmarshals a record into dst, reporting whether a usable payload existed
func (s *Store) load(profileID, kind string, dst interface{}) (bool, error) {
	payload, err := s.getPayload(profileID, kind)
	if err != nil {
		return false, err
	}
	if payload == nil {
		return false, nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		zap.S().Warnw("discarding corrupt record", "profile", profileID, "kind", kind, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Store) save(profileID, kind string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record %s/%s: %w", profileID, kind, err)
	}
	return s.putPayload(profileID, kind, payload)
}

// SchemaVersion returns the stored payload schema version, or 0 for a
// database that has never been stamped.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if _, err := s.load(metaProfileID, KindSchemaVersion, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// SetSchemaVersion stamps the database's payload schema version
func (s *Store) SetSchemaVersion(v int) error {
	return s.save(metaProfileID, KindSchemaVersion, v)
}

// Profile returns the stored profile, or a blank guest-less default
func (s *Store) Profile(profileID string) (models.UserProfile, error) {
	var p models.UserProfile
	ok, err := s.load(profileID, KindProfile, &p)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !ok {
		return models.UserProfile{ID: profileID}, nil
	}
	if p.ID == "" {
		p.ID = profileID
	}
	return p, nil
}

// SaveProfile persists the profile record
func (s *Store) SaveProfile(p models.UserProfile) error {
	return s.save(p.ID, KindProfile, p)
}

// Stats returns the stored stats, or a fresh default record
func (s *Store) Stats(profileID string) (models.UserStats, error) {
	var st models.UserStats
	ok, err := s.load(profileID, KindStats, &st)
	if err != nil {
		return models.UserStats{}, err
	}
	if !ok {
		return models.DefaultStats(time.Now()), nil
	}
	if st.AllTimeBests == nil {
		st.AllTimeBests = make(map[string]int)
	}
	if st.Weekly.GameBests == nil {
		st.Weekly.GameBests = make(map[string]int)
	}
	return st, nil
}

// SaveStats persists the stats record
func (s *Store) SaveStats(profileID string, st models.UserStats) error {
	return s.save(profileID, KindStats, st)
}

// SRSMap returns the stored review table, or an empty map
func (s *Store) SRSMap(profileID string) (models.SRSMap, error) {
	m := make(models.SRSMap)
	if _, err := s.load(profileID, KindSRS, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveSRSMap persists the full review table
func (s *Store) SaveSRSMap(profileID string, m models.SRSMap) error {
	return s.save(profileID, KindSRS, m)
}

// Bookmarks returns the stored bookmark word keys, or an empty set
func (s *Store) Bookmarks(profileID string) ([]string, error) {
	var b []string
	if _, err := s.load(profileID, KindBookmarks, &b); err != nil {
		return nil, err
	}
	return b, nil
}

// SaveBookmarks persists the bookmark set
func (s *Store) SaveBookmarks(profileID string, bookmarks []string) error {
	return s.save(profileID, KindBookmarks, bookmarks)
}

// QuestState returns the stored daily quest state; ok is false when absent
func (s *Store) QuestState(profileID string) (models.DailyQuestState, bool, error) {
	var q models.DailyQuestState
	ok, err := s.load(profileID, KindQuests, &q)
	if err != nil {
		return models.DailyQuestState{}, false, err
	}
	return q, ok, nil
}

// SaveQuestState persists the daily quest state
func (s *Store) SaveQuestState(profileID string, q models.DailyQuestState) error {
	return s.save(profileID, KindQuests, q)
}

// Settings returns the stored app settings, or the defaults
func (s *Store) Settings(profileID string) (models.AppSettings, error) {
	settings := models.DefaultSettings()
	if _, err := s.load(profileID, KindSettings, &settings); err != nil {
		return models.AppSettings{}, err
	}
	return settings, nil
}

// SaveSettings persists the app settings
func (s *Store) SaveSettings(profileID string, settings models.AppSettings) error {
	return s.save(profileID, KindSettings, settings)
}

// TutorialSeen reports whether the onboarding tutorial has been completed
func (s *Store) TutorialSeen(profileID string) (bool, error) {
	var seen bool
	if _, err := s.load(profileID, KindTutorial, &seen); err != nil {
		return false, err
	}
	return seen, nil
}

// SetTutorialSeen marks the onboarding tutorial as completed
func (s *Store) SetTutorialSeen(profileID string, seen bool) error {
	return s.save(profileID, KindTutorial, seen)
}

// RemoteSnapshot returns the last-known remote record, or nil when none exists
func (s *Store) RemoteSnapshot(profileID string) (*models.ProfileRecord, error) {
	var rec models.ProfileRecord
	ok, err := s.load(profileID, KindSnapshot, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// SaveRemoteSnapshot persists the last-known remote record
func (s *Store) SaveRemoteSnapshot(profileID string, rec *models.ProfileRecord) error {
	return s.save(profileID, KindSnapshot, rec)
}

// ProfileIDs lists every profile with a stored profile record
func (s *Store) ProfileIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT profile_id FROM records WHERE kind = ?`, KindProfile)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MoveProfile re-keys every record from one profile id to another, clearing
// anything already stored under the destination first. Used when a guest
// claims an account and inherits a backend user id.
func (s *Store) MoveProfile(fromID, toID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE profile_id = ?`, toID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear profile %s: %w", toID, err)
	}
	if _, err := tx.Exec(`UPDATE records SET profile_id = ? WHERE profile_id = ?`, toID, fromID); err != nil {
		tx.Rollback()
		return fmt.Errorf("move profile %s to %s: %w", fromID, toID, err)
	}
	return tx.Commit()
}

// DeleteProfile removes every record belonging to a profile in one transaction
func (s *Store) DeleteProfile(profileID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE profile_id = ?`, profileID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete profile %s: %w", profileID, err)
	}
	return tx.Commit()
}
