package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"lexiquest/internal/models"
	"lexiquest/internal/store"
)

// RemoteStore is the backend surface the reconciler needs.
type RemoteStore interface {
	FetchProfileRecord(ctx context.Context, userID string) (*models.ProfileRecord, error)
	UpsertProfileRecord(ctx context.Context, record *models.ProfileRecord) error
}

// Action describes what a reconcile pass did.
type Action string

const (
	ActionNone   Action = "none"
	ActionPulled Action = "pulled"
	ActionPushed Action = "pushed"
)

// Reconciler keeps the local store and the backend record converged with
// whole-record last-writer-wins. The newer side, judged by the records'
// effective timestamps, replaces the older wholesale; fields are never merged.
type Reconciler struct {
	store  *store.Store
	remote RemoteStore

	now func() time.Time
}

func NewReconciler(st *store.Store, remote RemoteStore) *Reconciler {
	return &Reconciler{store: st, remote: remote, now: time.Now}
}

// Reconcile runs one pass for a profile. Guests are never synced. The caller
// decides whether a returned error is fatal; during normal play it is logged
// and dropped so offline use keeps working.
func (r *Reconciler) Reconcile(ctx context.Context, profileID string) (Action, error) {
	profile, err := r.store.Profile(profileID)
	if err != nil {
		return ActionNone, fmt.Errorf("load profile: %w", err)
	}
	if profile.IsGuest {
		return ActionNone, nil
	}

	local, err := r.assembleLocal(profile)
	if err != nil {
		return ActionNone, fmt.Errorf("assemble local record: %w", err)
	}

	// A failed fetch degrades to "remote absent": the pass still runs so a
	// device that cannot read the backend can at least push its own state.
	remoteRecord, err := r.remote.FetchProfileRecord(ctx, profileID)
	if err != nil {
		zap.S().Warnw("Fetch failed, treating remote as absent", "profile_id", profileID, "error", err)
		remoteRecord = nil
	}

	if remoteRecord != nil && remoteRecord.Complete() && remoteRecord.Timestamp().After(local.Timestamp()) {
		if err := r.applyRemote(profileID, remoteRecord); err != nil {
			return ActionNone, fmt.Errorf("apply remote record: %w", err)
		}
		zap.S().Infow("Pulled newer remote record", "profile_id", profileID,
			"remote_ts", remoteRecord.Timestamp(), "local_ts", local.Timestamp())
		return ActionPulled, nil
	}

	// Local is authoritative. Push only when it differs from what the
	// backend last acknowledged, so repeat passes stay idempotent.
	snapshot, err := r.store.RemoteSnapshot(profileID)
	if err != nil {
		return ActionNone, fmt.Errorf("load snapshot: %w", err)
	}
	if snapshot != nil && recordEqual(local, snapshot) {
		return ActionNone, nil
	}

	if err := r.remote.UpsertProfileRecord(ctx, local); err != nil {
		return ActionNone, fmt.Errorf("push local record: %w", err)
	}

	// Stamp the pushed state with the push time so another device's
	// newer-wins comparison sees how fresh this record really is. The
	// stamps are ignored by recordEqual, so repeat passes stay quiet.
	pushedAt := r.now()
	if err := r.stampLocal(profileID, pushedAt); err != nil {
		return ActionPushed, err
	}
	local.UpdatedAt = pushedAt
	if local.Stats != nil {
		local.Stats.UpdatedAt = pushedAt
	}
	if err := r.store.SaveRemoteSnapshot(profileID, local); err != nil {
		return ActionPushed, fmt.Errorf("save snapshot: %w", err)
	}
	zap.S().Infow("Pushed local record", "profile_id", profileID, "pushed_at", pushedAt)
	return ActionPushed, nil
}

// stampLocal re-reads the profile and stats rows and advances only their
// updatedAt fields, so a gameplay write that landed mid-push is not undone.
func (r *Reconciler) stampLocal(profileID string, pushedAt time.Time) error {
	profile, err := r.store.Profile(profileID)
	if err != nil {
		return fmt.Errorf("stamp profile: %w", err)
	}
	profile.UpdatedAt = pushedAt
	if err := r.store.SaveProfile(profile); err != nil {
		return fmt.Errorf("stamp profile: %w", err)
	}

	stats, err := r.store.Stats(profileID)
	if err != nil {
		return fmt.Errorf("stamp stats: %w", err)
	}
	stats.UpdatedAt = pushedAt
	if err := r.store.SaveStats(profileID, stats); err != nil {
		return fmt.Errorf("stamp stats: %w", err)
	}
	return nil
}

// assembleLocal builds the wire record from the store's per-kind rows.
func (r *Reconciler) assembleLocal(profile models.UserProfile) (*models.ProfileRecord, error) {
	stats, err := r.store.Stats(profile.ID)
	if err != nil {
		return nil, err
	}
	srs, err := r.store.SRSMap(profile.ID)
	if err != nil {
		return nil, err
	}
	bookmarks, err := r.store.Bookmarks(profile.ID)
	if err != nil {
		return nil, err
	}
	settings, err := r.store.Settings(profile.ID)
	if err != nil {
		return nil, err
	}

	var memorized []string
	for key, entry := range srs {
		if entry.Memorized() {
			memorized = append(memorized, key)
		}
	}
	sort.Strings(memorized)

	inventory := profile.Inventory
	return &models.ProfileRecord{
		UserID:    profile.ID,
		Username:  profile.Username,
		Grade:     profile.Grade,
		Avatar:    profile.Avatar,
		Theme:     settings.Theme,
		Stats:     &stats,
		SRS:       srs,
		Memorized: memorized,
		Bookmarks: bookmarks,
		Inventory: &inventory,
		UpdatedAt: profile.UpdatedAt,
	}, nil
}

// applyRemote overwrites every synced kind with the remote record's contents
// and remembers the record as the new push baseline.
func (r *Reconciler) applyRemote(profileID string, record *models.ProfileRecord) error {
	profile, err := r.store.Profile(profileID)
	if err != nil {
		return err
	}
	profile.Username = record.Username
	profile.Grade = record.Grade
	profile.Avatar = record.Avatar
	if record.Inventory != nil {
		profile.Inventory = *record.Inventory
	}
	profile.UpdatedAt = record.UpdatedAt
	if err := r.store.SaveProfile(profile); err != nil {
		return err
	}

	if err := r.store.SaveStats(profileID, *record.Stats); err != nil {
		return err
	}
	if err := r.store.SaveSRSMap(profileID, record.SRS); err != nil {
		return err
	}
	if err := r.store.SaveBookmarks(profileID, record.Bookmarks); err != nil {
		return err
	}

	settings, err := r.store.Settings(profileID)
	if err != nil {
		return err
	}
	if record.Theme != "" {
		settings.Theme = record.Theme
		if err := r.store.SaveSettings(profileID, settings); err != nil {
			return err
		}
	}

	return r.store.SaveRemoteSnapshot(profileID, record)
}

// recordEqual compares two records while ignoring their timestamp stamps, so
// a pass that changed nothing but clock readings does not trigger a push.
func recordEqual(a, b *models.ProfileRecord) bool {
	return bytes.Equal(canonical(a), canonical(b))
}

func canonical(record *models.ProfileRecord) []byte {
	clone := *record
	clone.UpdatedAt = time.Time{}
	if record.Stats != nil {
		stats := *record.Stats
		stats.UpdatedAt = time.Time{}
		clone.Stats = &stats
	}
	payload, err := json.Marshal(clone)
	if err != nil {
		return nil
	}
	return payload
}
