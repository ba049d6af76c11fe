package handlers

import (
	"errors"
	"net/http"

	"lexiquest/internal/security"
	"lexiquest/internal/service"
)

// ProfileHandler exposes identity, settings and cosmetics endpoints.
type ProfileHandler struct {
	profiles   *service.ProfileService
	registry   *service.Registry
	tokens     *security.TokenManager
	middleware *Middleware
}

func NewProfileHandler(profiles *service.ProfileService, registry *service.Registry, tokens *security.TokenManager, middleware *Middleware) *ProfileHandler {
	return &ProfileHandler{
		profiles:   profiles,
		registry:   registry,
		tokens:     tokens,
		middleware: middleware,
	}
}

// RegisterRoutes attaches the profile endpoints to a mux.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux) {
	auth := h.middleware.RequireSession
	mux.HandleFunc("POST /api/profiles/guest", h.middleware.RateLimit(h.CreateGuest))
	mux.HandleFunc("POST /api/sessions", h.middleware.RateLimit(h.CreateSession))
	mux.HandleFunc("POST /api/profiles/claim", auth(h.ClaimAccount))
	mux.HandleFunc("GET /api/profile", auth(h.Get))
	mux.HandleFunc("PUT /api/profile/username", auth(h.ChangeUsername))
	mux.HandleFunc("PUT /api/profile/grade", auth(h.SetGrade))
	mux.HandleFunc("PUT /api/profile/avatar", auth(h.SetAvatar))
	mux.HandleFunc("POST /api/profile/cosmetics/purchase", auth(h.PurchaseCosmetic))
	mux.HandleFunc("POST /api/profile/cosmetics/equip", auth(h.EquipCosmetic))
	mux.HandleFunc("GET /api/settings", auth(h.Settings))
	mux.HandleFunc("PUT /api/settings", auth(h.UpdateSettings))
	mux.HandleFunc("GET /api/tutorial", auth(h.TutorialSeen))
	mux.HandleFunc("POST /api/tutorial", auth(h.MarkTutorialSeen))
	mux.HandleFunc("DELETE /api/profile", auth(h.Delete))
}

// CreateGuest makes a local-only profile and hands back a session for it.
func (h *ProfileHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Grade string `json:"grade"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.CreateGuest(req.Grade)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to create profile", err)
		return
	}

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]any{
		"profile": profile,
		"token":   token,
	})
}

// CreateSession mints a session token for an existing local profile.
func (h *ProfileHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID string `json:"profileId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.Get(req.ProfileID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load profile", err)
		return
	}
	if profile.Username == "" {
		respondWithError(w, http.StatusNotFound, "profile not found", nil)
		return
	}

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"profile": profile,
		"token":   token,
	})
}

// ClaimAccount upgrades the authenticated guest to a synced account.
func (h *ProfileHandler) ClaimAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}

	profile, err := h.profiles.ClaimAccount(ProfileID(r), req.UserID, req.Username)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to claim account", err)
		return
	}
	h.registry.Evict(ProfileID(r))

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"profile": profile,
		"token":   token,
	})
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(ProfileID(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load profile", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.ChangeUsername(ProfileID(r), req.Username)
	if err != nil {
		if errors.Is(err, service.ErrUsernameCooldown) {
			respondWithError(w, http.StatusConflict, "username was changed too recently", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, "invalid username", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) SetGrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Grade string `json:"grade"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.SetGrade(ProfileID(r), req.Grade)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to set grade", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Avatar string `json:"avatar"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.SetAvatar(ProfileID(r), req.Avatar)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to set avatar", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

type cosmeticRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (h *ProfileHandler) PurchaseCosmetic(w http.ResponseWriter, r *http.Request) {
	var req cosmeticRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.PurchaseCosmetic(ProfileID(r), req.Kind, req.ID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCosmetic) {
			respondWithError(w, http.StatusBadRequest, "unknown cosmetic kind", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to purchase cosmetic", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) EquipCosmetic(w http.ResponseWriter, r *http.Request) {
	var req cosmeticRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.EquipCosmetic(ProfileID(r), req.Kind, req.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCosmeticNotOwned):
			respondWithError(w, http.StatusForbidden, "cosmetic is not owned", nil)
		case errors.Is(err, service.ErrUnknownCosmetic):
			respondWithError(w, http.StatusBadRequest, "unknown cosmetic kind", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to equip cosmetic", err)
		}
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.profiles.Settings(ProfileID(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

func (h *ProfileHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SoundEnabled bool   `json:"soundEnabled"`
		Theme        string `json:"theme"`
		DigestEmail  string `json:"digestEmail"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.profiles.Settings(ProfileID(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	settings.SoundEnabled = req.SoundEnabled
	settings.DigestEmail = req.DigestEmail
	if req.Theme != "" {
		settings.Theme = req.Theme
	}
	if err := h.profiles.UpdateSettings(ProfileID(r), settings); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save settings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

func (h *ProfileHandler) TutorialSeen(w http.ResponseWriter, r *http.Request) {
	seen, err := h.profiles.TutorialSeen(ProfileID(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load tutorial state", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"seen": seen})
}

func (h *ProfileHandler) MarkTutorialSeen(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.MarkTutorialSeen(ProfileID(r)); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save tutorial state", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// Delete wipes the profile's local data. The remote copy is not touched.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID := ProfileID(r)
	if err := h.profiles.DeleteLocalData(profileID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to delete profile data", err)
		return
	}
	h.registry.Evict(profileID)
	respondWithJSON(w, http.StatusNoContent, nil)
}
