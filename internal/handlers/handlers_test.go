package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lexiquest/internal/badges"
	"lexiquest/internal/content"
	"lexiquest/internal/database"
	"lexiquest/internal/models"
	"lexiquest/internal/security"
	"lexiquest/internal/service"
	"lexiquest/internal/store"
)

func newTestServer(t *testing.T) (*http.ServeMux, *security.TokenManager, *service.ProfileService) {
	t.Helper()

	db, err := database.Initialize(t.TempDir() + "/handlers_test.db")
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cache := content.NewCache()
	cache.Load([]models.Unit{
		{ID: "u1", Grade: "5", Title: "Unit 1", Words: []models.VocabWord{
			{English: "apple", Translation: "manzana"},
		}},
	})

	catalog, err := badges.NewCatalog(badges.DefaultCatalog())
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	st := store.New(db)
	registry := service.NewRegistry(st, cache, catalog, nil)
	profiles := service.NewProfileService(st)
	tokens := security.NewTokenManager("test-secret", time.Hour)
	limiter := security.NewRateLimiter(100, time.Minute)
	middleware := NewMiddleware(tokens, limiter)

	mux := http.NewServeMux()
	NewProgressHandler(registry, cache, middleware).RegisterRoutes(mux)
	NewProfileHandler(profiles, registry, tokens, middleware).RegisterRoutes(mux)
	return mux, tokens, profiles
}

func authedRequest(t *testing.T, tokens *security.TokenManager, method, path, body string) *http.Request {
	t.Helper()

	token, err := tokens.Issue("p1")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	mux, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireSessionRejectsGarbageToken(t *testing.T) {
	mux, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCardViewEndpoint(t *testing.T) {
	mux, tokens, _ := newTestServer(t)

	req := authedRequest(t, tokens, http.MethodPost, "/api/events/card-view",
		`{"unitId":"u1","english":"apple"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		XPGained  int      `json:"xpGained"`
		NewBadges []string `json:"newBadges"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.XPGained == 0 {
		t.Error("card view earned no XP")
	}
}

func TestCardViewRequiresWord(t *testing.T) {
	mux, tokens, _ := newTestServer(t)

	req := authedRequest(t, tokens, http.MethodPost, "/api/events/card-view", `{"unitId":"u1"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQuestsEndpoint(t *testing.T) {
	mux, tokens, _ := newTestServer(t)

	req := authedRequest(t, tokens, http.MethodGet, "/api/quests", "")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var state models.DailyQuestState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(state.Quests) != 4 {
		t.Errorf("quest count = %d, want 4", len(state.Quests))
	}
}

func TestBookmarkEndpoints(t *testing.T) {
	mux, tokens, _ := newTestServer(t)

	req := authedRequest(t, tokens, http.MethodPost, "/api/words/bookmark",
		`{"unitId":"u1","english":"apple","bookmarked":true}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = authedRequest(t, tokens, http.MethodGet, "/api/bookmarks", "")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var bookmarks []string
	if err := json.NewDecoder(rec.Body).Decode(&bookmarks); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(bookmarks) != 1 || bookmarks[0] != "u1|apple" {
		t.Errorf("bookmarks = %v, want [u1|apple]", bookmarks)
	}

	req = authedRequest(t, tokens, http.MethodPost, "/api/words/bookmark",
		`{"unitId":"u1","english":"apple","bookmarked":false}`)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unbookmark status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestUnitsEndpoint(t *testing.T) {
	mux, tokens, _ := newTestServer(t)

	req := authedRequest(t, tokens, http.MethodGet, "/api/units?grade=5", "")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var units []models.Unit
	if err := json.NewDecoder(rec.Body).Decode(&units); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(units) != 1 || units[0].ID != "u1" {
		t.Errorf("units = %+v, want the single grade 5 unit", units)
	}

	req = authedRequest(t, tokens, http.MethodGet, "/api/units", "")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing grade status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateGuestMintsSession(t *testing.T) {
	mux, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/profiles/guest",
		strings.NewReader(`{"grade":"5"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Profile models.UserProfile `json:"profile"`
		Token   string             `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Profile.IsGuest {
		t.Error("created profile is not a guest")
	}
	if resp.Profile.FriendCode == "" {
		t.Error("created profile has no friend code")
	}
	if resp.Token == "" {
		t.Fatal("no session token returned")
	}

	// The minted token works against an authenticated endpoint
	statsReq := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	statsReq.Header.Set("Authorization", "Bearer "+resp.Token)
	statsRec := httptest.NewRecorder()
	mux.ServeHTTP(statsRec, statsReq)
	if statsRec.Code != http.StatusOK {
		t.Errorf("stats with minted token: status = %d", statsRec.Code)
	}
}

func TestEquipUnownedCosmetic(t *testing.T) {
	mux, tokens, profiles := newTestServer(t)

	if _, err := profiles.Get("p1"); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	req := authedRequest(t, tokens, http.MethodPost, "/api/profile/cosmetics/equip",
		`{"kind":"frame","id":"gold-frame"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestPurchaseThenEquipCosmetic(t *testing.T) {
	mux, tokens, _ := newTestServer(t)

	buy := authedRequest(t, tokens, http.MethodPost, "/api/profile/cosmetics/purchase",
		`{"kind":"frame","id":"gold-frame"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, buy)
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase status = %d, body = %s", rec.Code, rec.Body.String())
	}

	equip := authedRequest(t, tokens, http.MethodPost, "/api/profile/cosmetics/equip",
		`{"kind":"frame","id":"gold-frame"}`)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, equip)
	if rec.Code != http.StatusOK {
		t.Fatalf("equip status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var profile models.UserProfile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if profile.EquippedFrame != "gold-frame" {
		t.Errorf("equippedFrame = %s, want gold-frame", profile.EquippedFrame)
	}
}
