package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lexiquest/internal/credentials"
	"lexiquest/internal/models"
	"lexiquest/internal/store"
)

// Cosmetic categories a profile can own and equip.
const (
	CosmeticTheme      = "theme"
	CosmeticFrame      = "frame"
	CosmeticBackground = "background"
)

// usernameChangeCooldown throttles renames so leaderboards stay recognizable.
const usernameChangeCooldown = 7 * 24 * time.Hour

var (
	ErrUsernameCooldown = errors.New("username was changed too recently")
	ErrCosmeticNotOwned = errors.New("cosmetic is not owned")
	ErrUnknownCosmetic  = errors.New("unknown cosmetic kind")
)

// ProfileService handles identity and cosmetics for the local learner.
type ProfileService struct {
	store *store.Store

	now func() time.Time
}

func NewProfileService(st *store.Store) *ProfileService {
	return &ProfileService{store: st, now: time.Now}
}

// Get returns the stored profile for an id.
func (s *ProfileService) Get(profileID string) (models.UserProfile, error) {
	return s.store.Profile(profileID)
}

// CreateGuest creates a local-only profile with a generated name and friend
// code. Guest progress never leaves the device until the account is claimed.
func (s *ProfileService) CreateGuest(grade string) (models.UserProfile, error) {
	username, err := credentials.GenerateGuestUsername()
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("generate username: %w", err)
	}
	friendCode, err := credentials.GenerateFriendCode()
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("generate friend code: %w", err)
	}

	profile := models.UserProfile{
		ID:         uuid.New().String(),
		Username:   username,
		Grade:      grade,
		IsGuest:    true,
		FriendCode: friendCode,
		UpdatedAt:  s.now(),
	}
	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// ClaimAccount upgrades a guest into a synced account under the identity
// provider's user id. Progress rows move to the new id so nothing is lost.
func (s *ProfileService) ClaimAccount(guestID, userID, username string) (models.UserProfile, error) {
	profile, err := s.store.Profile(guestID)
	if err != nil {
		return models.UserProfile{}, err
	}

	if guestID != userID {
		if err := s.store.MoveProfile(guestID, userID); err != nil {
			return models.UserProfile{}, err
		}
	}

	profile.ID = userID
	profile.IsGuest = false
	if username != "" {
		profile.Username = username
	}
	profile.UpdatedAt = s.now()

	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// ChangeUsername renames the profile, subject to the rename cooldown.
func (s *ProfileService) ChangeUsername(profileID, username string) (models.UserProfile, error) {
	if err := validateUsername(username); err != nil {
		return models.UserProfile{}, err
	}

	profile, err := s.store.Profile(profileID)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !profile.LastUsernameChange.IsZero() && s.now().Sub(profile.LastUsernameChange) < usernameChangeCooldown {
		return models.UserProfile{}, ErrUsernameCooldown
	}

	profile.Username = username
	profile.LastUsernameChange = s.now()
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// SetGrade moves the learner to a different grade's vocabulary.
func (s *ProfileService) SetGrade(profileID, grade string) (models.UserProfile, error) {
	profile, err := s.store.Profile(profileID)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile.Grade = grade
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// SetAvatar updates the avatar emoji or id.
func (s *ProfileService) SetAvatar(profileID, avatar string) (models.UserProfile, error) {
	profile, err := s.store.Profile(profileID)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile.Avatar = avatar
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// PurchaseCosmetic adds a cosmetic to the owned set. Re-buying an owned
// cosmetic is a no-op rather than an error, which keeps retried requests safe.
func (s *ProfileService) PurchaseCosmetic(profileID, kind, id string) (models.UserProfile, error) {
	profile, err := s.store.Profile(profileID)
	if err != nil {
		return models.UserProfile{}, err
	}

	owned, err := ownedListFor(&profile, kind)
	if err != nil {
		return models.UserProfile{}, err
	}
	if models.OwnsCosmetic(*owned, id) {
		return profile, nil
	}

	*owned = append(*owned, id)
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// EquipCosmetic equips an owned frame or background, or switches the theme.
func (s *ProfileService) EquipCosmetic(profileID, kind, id string) (models.UserProfile, error) {
	profile, err := s.store.Profile(profileID)
	if err != nil {
		return models.UserProfile{}, err
	}

	owned, err := ownedListFor(&profile, kind)
	if err != nil {
		return models.UserProfile{}, err
	}
	if id != "" && id != "default" && !models.OwnsCosmetic(*owned, id) {
		return models.UserProfile{}, ErrCosmeticNotOwned
	}

	switch kind {
	case CosmeticFrame:
		profile.EquippedFrame = id
	case CosmeticBackground:
		profile.EquippedBackground = id
	case CosmeticTheme:
		settings, err := s.store.Settings(profileID)
		if err != nil {
			return models.UserProfile{}, err
		}
		settings.Theme = id
		if err := s.store.SaveSettings(profileID, settings); err != nil {
			return models.UserProfile{}, err
		}
	}

	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// AddConsumables credits streak freezes or XP boosts, e.g. from a reward.
func (s *ProfileService) AddConsumables(profileID string, streakFreezes, xpBoosts int) (models.UserProfile, error) {
	profile, err := s.store.Profile(profileID)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile.Inventory.StreakFreezes += streakFreezes
	profile.Inventory.XPBoosts += xpBoosts
	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

// Settings returns the device-local preferences.
func (s *ProfileService) Settings(profileID string) (models.AppSettings, error) {
	return s.store.Settings(profileID)
}

// UpdateSettings replaces the device-local preferences.
func (s *ProfileService) UpdateSettings(profileID string, settings models.AppSettings) error {
	return s.store.SaveSettings(profileID, settings)
}

// TutorialSeen reports whether the onboarding walkthrough was completed.
func (s *ProfileService) TutorialSeen(profileID string) (bool, error) {
	return s.store.TutorialSeen(profileID)
}

// MarkTutorialSeen records that the onboarding walkthrough was completed.
func (s *ProfileService) MarkTutorialSeen(profileID string) error {
	return s.store.SetTutorialSeen(profileID, true)
}

// DeleteLocalData removes every stored row for the profile. The remote copy,
// if any, is untouched; deletion upstream is the backend's responsibility.
func (s *ProfileService) DeleteLocalData(profileID string) error {
	return s.store.DeleteProfile(profileID)
}

func ownedListFor(profile *models.UserProfile, kind string) (*[]string, error) {
	switch kind {
	case CosmeticTheme:
		return &profile.OwnedThemes, nil
	case CosmeticFrame:
		return &profile.OwnedFrames, nil
	case CosmeticBackground:
		return &profile.OwnedBackgrounds, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCosmetic, kind)
	}
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 20 {
		return errors.New("username must be 3-20 characters")
	}
	for _, r := range username {
		if !isUsernameRune(r) {
			return fmt.Errorf("username contains invalid character %q", r)
		}
	}
	return nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}
