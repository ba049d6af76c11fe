package handlers

import (
	"net/http"
	"time"

	"lexiquest/internal/content"
	"lexiquest/internal/models"
	"lexiquest/internal/service"
	"lexiquest/internal/srs"
	"lexiquest/internal/stats"
	syncer "lexiquest/internal/sync"
)

// ProgressHandler exposes the learning actions as JSON endpoints.
type ProgressHandler struct {
	registry   *service.Registry
	cache      *content.Cache
	middleware *Middleware
}

func NewProgressHandler(registry *service.Registry, cache *content.Cache, middleware *Middleware) *ProgressHandler {
	return &ProgressHandler{registry: registry, cache: cache, middleware: middleware}
}

// RegisterRoutes attaches the progress endpoints to a mux.
func (h *ProgressHandler) RegisterRoutes(mux *http.ServeMux) {
	auth := h.middleware.RequireSession
	mux.HandleFunc("POST /api/events/card-view", auth(h.CardView))
	mux.HandleFunc("POST /api/events/quiz-answer", auth(h.QuizAnswer))
	mux.HandleFunc("POST /api/events/quiz-finish", auth(h.QuizFinish))
	mux.HandleFunc("POST /api/events/review", auth(h.Review))
	mux.HandleFunc("POST /api/events/game-score", auth(h.GameScore))
	mux.HandleFunc("POST /api/events/duel-result", auth(h.DuelResult))
	mux.HandleFunc("POST /api/events/study-time", auth(h.StudyTime))
	mux.HandleFunc("POST /api/words/memorized", auth(h.SetMemorized))
	mux.HandleFunc("POST /api/words/bookmark", auth(h.SetBookmark))
	mux.HandleFunc("GET /api/bookmarks", auth(h.Bookmarks))
	mux.HandleFunc("POST /api/boost", auth(h.ActivateBoost))
	mux.HandleFunc("GET /api/stats", auth(h.Stats))
	mux.HandleFunc("GET /api/reviews/due", auth(h.DueWords))
	mux.HandleFunc("GET /api/quests", auth(h.Quests))
	mux.HandleFunc("GET /api/units", auth(h.Units))
	mux.HandleFunc("POST /api/sync", auth(h.Sync))
}

func (h *ProgressHandler) progress(w http.ResponseWriter, r *http.Request) (*service.ProgressService, bool) {
	svc, err := h.registry.Progress(ProfileID(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load profile", err)
		return nil, false
	}
	return svc, true
}

type wordRequest struct {
	UnitID  string `json:"unitId"`
	English string `json:"english"`
}

type applyResponse struct {
	XPGained  int      `json:"xpGained"`
	NewBadges []string `json:"newBadges"`
}

func toApplyResponse(result stats.ApplyResult) applyResponse {
	resp := applyResponse{XPGained: result.XPGained, NewBadges: []string{}}
	for _, b := range result.NewBadges {
		resp.NewBadges = append(resp.NewBadges, b.ID)
	}
	return resp
}

func (h *ProgressHandler) CardView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req wordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.English == "" {
		respondWithError(w, http.StatusBadRequest, "english is required", nil)
		return
	}

	result, err := svc.RecordCardView(req.UnitID, req.English)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to record card view", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toApplyResponse(result))
}

func (h *ProgressHandler) QuizAnswer(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		wordRequest
		Correct bool `json:"correct"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.English == "" {
		respondWithError(w, http.StatusBadRequest, "english is required", nil)
		return
	}

	result, err := svc.SubmitQuizAnswer(req.UnitID, req.English, req.Correct)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to record quiz answer", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toApplyResponse(result))
}

func (h *ProgressHandler) QuizFinish(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		Perfect bool `json:"perfect"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := svc.FinishQuiz(req.Perfect)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to finish quiz", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toApplyResponse(result))
}

func (h *ProgressHandler) Review(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		wordRequest
		Remembered bool `json:"remembered"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.English == "" {
		respondWithError(w, http.StatusBadRequest, "english is required", nil)
		return
	}

	result, err := svc.RecordReview(req.UnitID, req.English, req.Remembered)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to record review", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toApplyResponse(result))
}

func (h *ProgressHandler) GameScore(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		Game  string `json:"game"`
		Score int    `json:"score"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Game == "" {
		respondWithError(w, http.StatusBadRequest, "game is required", nil)
		return
	}

	result, err := svc.RecordGameScore(req.Game, req.Score)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to record game score", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toApplyResponse(result))
}

func (h *ProgressHandler) DuelResult(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		Points int `json:"points"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := svc.RecordDuelResult(req.Points)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to record duel result", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toApplyResponse(result))
}

func (h *ProgressHandler) StudyTime(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		Seconds int `json:"seconds"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := svc.AddStudyTime(req.Seconds); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to add study time", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *ProgressHandler) SetMemorized(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		wordRequest
		Memorized bool `json:"memorized"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.English == "" {
		respondWithError(w, http.StatusBadRequest, "english is required", nil)
		return
	}

	if req.Memorized {
		result, err := svc.MarkMemorized(req.UnitID, req.English)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to mark memorized", err)
			return
		}
		respondWithJSON(w, http.StatusOK, toApplyResponse(result))
		return
	}

	if err := svc.UnmarkMemorized(req.UnitID, req.English); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to unmark memorized", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *ProgressHandler) SetBookmark(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	var req struct {
		wordRequest
		Bookmarked bool `json:"bookmarked"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.English == "" {
		respondWithError(w, http.StatusBadRequest, "english is required", nil)
		return
	}

	if err := svc.SetBookmark(req.UnitID, req.English, req.Bookmarked); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to update bookmark", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *ProgressHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	bookmarks, err := svc.Bookmarks()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load bookmarks", err)
		return
	}
	if bookmarks == nil {
		bookmarks = []string{}
	}
	respondWithJSON(w, http.StatusOK, bookmarks)
}

func (h *ProgressHandler) ActivateBoost(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	activated, err := svc.ActivateXPBoost(30 * time.Minute)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to activate boost", err)
		return
	}
	if !activated {
		respondWithError(w, http.StatusConflict, "no boost available", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"activated": true})
}

func (h *ProgressHandler) Stats(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	statsRecord, err := svc.Stats()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, statsRecord)
}

func (h *ProgressHandler) DueWords(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	type dueResponse struct {
		Due   []srs.DueWord `json:"due"`
		Count int           `json:"count"`
	}
	due := svc.DueWords()
	if grade := r.URL.Query().Get("grade"); grade != "" {
		respondWithJSON(w, http.StatusOK, dueResponse{Due: due, Count: svc.DueCountForGrade(grade)})
		return
	}
	respondWithJSON(w, http.StatusOK, dueResponse{Due: due, Count: len(due)})
}

func (h *ProgressHandler) Quests(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	quests, err := svc.TodayQuests()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load quests", err)
		return
	}
	respondWithJSON(w, http.StatusOK, quests)
}

// Units lists the vocabulary units, optionally filtered by grade.
func (h *ProgressHandler) Units(w http.ResponseWriter, r *http.Request) {
	grade := r.URL.Query().Get("grade")
	if grade == "" {
		respondWithError(w, http.StatusBadRequest, "grade is required", nil)
		return
	}

	units := make([]models.Unit, 0)
	for _, id := range h.cache.UnitsForGrade(grade) {
		if unit, ok := h.cache.Unit(id); ok {
			units = append(units, unit)
		}
	}
	respondWithJSON(w, http.StatusOK, units)
}

func (h *ProgressHandler) Sync(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.progress(w, r)
	if !ok {
		return
	}

	action, err := svc.Sync(r.Context())
	if err != nil {
		// Sync problems are reported but never fail the app
		respondWithJSON(w, http.StatusOK, map[string]string{
			"action": string(syncer.ActionNone),
			"error":  "sync failed, will retry later",
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"action": string(action)})
}
