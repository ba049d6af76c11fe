package store

import (
	"os"
	"testing"
	"time"

	"lexiquest/internal/database"
	"lexiquest/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := t.TempDir() + "/store_test.db"
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return New(db)
}

func TestStoreDefaults(t *testing.T) {
	s := newTestStore(t)

	t.Run("missing profile yields blank default", func(t *testing.T) {
		p, err := s.Profile("p1")
		if err != nil {
			t.Fatalf("Profile() error: %v", err)
		}
		if p.ID != "p1" || p.Username != "" || p.IsGuest {
			t.Errorf("unexpected default profile: %+v", p)
		}
	})

	t.Run("missing stats yields fresh record", func(t *testing.T) {
		st, err := s.Stats("p1")
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		if st.XP != 0 || st.Level != 1 || st.AllTimeBests == nil {
			t.Errorf("unexpected default stats: %+v", st)
		}
	})

	t.Run("missing srs map is empty not nil", func(t *testing.T) {
		m, err := s.SRSMap("p1")
		if err != nil {
			t.Fatalf("SRSMap() error: %v", err)
		}
		if m == nil || len(m) != 0 {
			t.Errorf("SRSMap() = %v, want empty map", m)
		}
	})

	t.Run("missing settings yield defaults", func(t *testing.T) {
		settings, err := s.Settings("p1")
		if err != nil {
			t.Fatalf("Settings() error: %v", err)
		}
		if !settings.SoundEnabled || settings.Theme != "default" {
			t.Errorf("unexpected default settings: %+v", settings)
		}
	})

	t.Run("missing snapshot is nil", func(t *testing.T) {
		snap, err := s.RemoteSnapshot("p1")
		if err != nil {
			t.Fatalf("RemoteSnapshot() error: %v", err)
		}
		if snap != nil {
			t.Errorf("RemoteSnapshot() = %v, want nil", snap)
		}
	})
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	profile := models.UserProfile{
		ID:         "p1",
		Username:   "lexi",
		Grade:      "grade5",
		FriendCode: "AB12CD",
		IsGuest:    false,
		Inventory:  models.Inventory{StreakFreezes: 2},
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveProfile(profile); err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}

	got, err := s.Profile("p1")
	if err != nil {
		t.Fatalf("Profile() error: %v", err)
	}
	if got.Username != "lexi" || got.FriendCode != "AB12CD" || got.Inventory.StreakFreezes != 2 {
		t.Errorf("Profile() = %+v, want saved values", got)
	}

	srsMap := models.SRSMap{
		"u1|apple": {Box: 3, NextReview: time.Now().UTC().Truncate(time.Second)},
	}
	if err := s.SaveSRSMap("p1", srsMap); err != nil {
		t.Fatalf("SaveSRSMap() error: %v", err)
	}
	gotMap, err := s.SRSMap("p1")
	if err != nil {
		t.Fatalf("SRSMap() error: %v", err)
	}
	if gotMap["u1|apple"].Box != 3 {
		t.Errorf("SRSMap() entry = %+v, want box 3", gotMap["u1|apple"])
	}

	if err := s.SaveBookmarks("p1", []string{"u1|apple", "u2|river"}); err != nil {
		t.Fatalf("SaveBookmarks() error: %v", err)
	}
	bookmarks, err := s.Bookmarks("p1")
	if err != nil {
		t.Fatalf("Bookmarks() error: %v", err)
	}
	if len(bookmarks) != 2 {
		t.Errorf("Bookmarks() = %v, want 2 entries", bookmarks)
	}
}

func TestStoreCorruptRecordFallsBackToDefault(t *testing.T) {
	s := newTestStore(t)

	// Write garbage directly, bypassing the typed setters
	if err := s.putPayload("p1", KindStats, []byte("{not json")); err != nil {
		t.Fatalf("putPayload() error: %v", err)
	}

	st, err := s.Stats("p1")
	if err != nil {
		t.Fatalf("Stats() should not fail on corrupt payload: %v", err)
	}
	if st.XP != 0 || st.Level != 1 {
		t.Errorf("Stats() after corruption = %+v, want defaults", st)
	}
}

func TestStoreSchemaVersion(t *testing.T) {
	s := newTestStore(t)

	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error: %v", err)
	}
	if v != 0 {
		t.Errorf("unstamped database version = %d, want 0", v)
	}

	if err := s.SetSchemaVersion(CurrentSchemaVersion); err != nil {
		t.Fatalf("SetSchemaVersion() error: %v", err)
	}
	v, err = s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error: %v", err)
	}
	if v != CurrentSchemaVersion {
		t.Errorf("version = %d, want %d", v, CurrentSchemaVersion)
	}

	// The stamp's pseudo profile never shows up in profile listings
	ids, err := s.ProfileIDs()
	if err != nil {
		t.Fatalf("ProfileIDs() error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("profile ids = %v, want none", ids)
	}
}

func TestStoreDeleteProfile(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveProfile(models.UserProfile{ID: "p1", Username: "lexi"}); err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}
	if err := s.SaveBookmarks("p1", []string{"apple"}); err != nil {
		t.Fatalf("SaveBookmarks() error: %v", err)
	}
	if err := s.SaveProfile(models.UserProfile{ID: "p2", Username: "quest"}); err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}

	if err := s.DeleteProfile("p1"); err != nil {
		t.Fatalf("DeleteProfile() error: %v", err)
	}

	p, err := s.Profile("p1")
	if err != nil {
		t.Fatalf("Profile() error: %v", err)
	}
	if p.Username != "" {
		t.Errorf("profile p1 survived deletion: %+v", p)
	}

	ids, err := s.ProfileIDs()
	if err != nil {
		t.Fatalf("ProfileIDs() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "p2" {
		t.Errorf("ProfileIDs() = %v, want [p2]", ids)
	}
}
