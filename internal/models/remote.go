package models

import "time"

// ProfileRecord is the whole-record payload exchanged with the remote profile
// service. The reconciler replaces it wholesale in either direction; there is
// no field-level merge.
type ProfileRecord struct {
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	Grade     string     `json:"grade"`
	Avatar    string     `json:"avatar"`
	Theme     string     `json:"theme"`
	Stats     *UserStats `json:"stats"`
	SRS       SRSMap     `json:"srsData"`
	Memorized []string   `json:"memorizedWords"`
	Bookmarks []string   `json:"bookmarks"`
	Inventory *Inventory `json:"inventory"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Complete reports whether the record carries both the stats and SRS
// substructures. An incomplete record is never trusted for a pull; the
// reconciler falls back to pushing local state instead.
func (r *ProfileRecord) Complete() bool {
	return r != nil && r.Stats != nil && r.SRS != nil
}

// Timestamp derives the record's logical time the same way the local side
// does: the max of the profile stamp, the stats stamp, and every SRS entry's
// next-review time.
func (r *ProfileRecord) Timestamp() time.Time {
	ts := r.UpdatedAt
	if r.Stats != nil && r.Stats.UpdatedAt.After(ts) {
		ts = r.Stats.UpdatedAt
	}
	for _, e := range r.SRS {
		if e.NextReview.After(ts) {
			ts = e.NextReview
		}
	}
	return ts
}
