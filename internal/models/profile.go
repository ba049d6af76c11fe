package models

import "time"

// UserProfile represents the identity and cosmetic record for a learner.
// The local device owns this record; the remote profile service holds an
// eventually-consistent copy maintained by the sync reconciler.
type UserProfile struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Grade              string    `json:"grade"`
	Avatar             string    `json:"avatar"`
	EquippedFrame      string    `json:"equippedFrame"`
	EquippedBackground string    `json:"equippedBackground"`
	OwnedThemes        []string  `json:"ownedThemes"`
	OwnedFrames        []string  `json:"ownedFrames"`
	OwnedBackgrounds   []string  `json:"ownedBackgrounds"`
	IsGuest            bool      `json:"isGuest"`
	FriendCode         string    `json:"friendCode"`
	Inventory          Inventory `json:"inventory"`
	IsAdmin            bool      `json:"isAdmin"`
	LastUsernameChange time.Time `json:"lastUsernameChange"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Inventory holds consumable counters owned by a profile
type Inventory struct {
	StreakFreezes int `json:"streakFreezes"`
	XPBoosts      int `json:"xpBoosts"`
}

// OwnsCosmetic reports whether a cosmetic id is already in the given owned list
func OwnsCosmetic(owned []string, id string) bool {
	for _, o := range owned {
		if o == id {
			return true
		}
	}
	return false
}

// AppSettings holds device-local preferences (sound, theme, digest opt-in)
type AppSettings struct {
	SoundEnabled bool   `json:"soundEnabled"`
	Theme        string `json:"theme"`
	DigestEmail  string `json:"digestEmail,omitempty"`
}

// DefaultSettings returns the settings used when none are stored
func DefaultSettings() AppSettings {
	return AppSettings{SoundEnabled: true, Theme: "default"}
}
