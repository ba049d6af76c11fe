package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lexiquest/internal/remote"
)

// MultiplayerHandler passes social features through to the backend: the
// server owns leaderboards, challenges and tournaments, and local code never
// interprets their payloads.
type MultiplayerHandler struct {
	client     *remote.Client
	middleware *Middleware
}

func NewMultiplayerHandler(client *remote.Client, middleware *Middleware) *MultiplayerHandler {
	return &MultiplayerHandler{client: client, middleware: middleware}
}

// RegisterRoutes attaches the multiplayer endpoints to a mux.
func (h *MultiplayerHandler) RegisterRoutes(mux *http.ServeMux) {
	auth := h.middleware.RequireSession
	mux.HandleFunc("GET /api/leaderboard", auth(h.Leaderboard))
	mux.HandleFunc("POST /api/challenges", auth(h.procedure("challenge_create")))
	mux.HandleFunc("POST /api/challenges/complete", auth(h.procedure("challenge_complete")))
	mux.HandleFunc("POST /api/tournaments/join", auth(h.procedure("tournament_join")))
	mux.HandleFunc("POST /api/tournaments/score", auth(h.procedure("tournament_submit_score")))
}

func (h *MultiplayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.client.Configured() {
		respondWithError(w, http.StatusServiceUnavailable, "multiplayer is offline", nil)
		return
	}

	args := map[string]any{
		"userId": ProfileID(r),
		"scope":  r.URL.Query().Get("scope"),
	}
	result, err := h.client.CallProcedure(r.Context(), "leaderboard", args)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to fetch leaderboard", err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// procedure builds a handler that forwards the request body to a named
// backend procedure and relays the raw result.
func (h *MultiplayerHandler) procedure(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.client.Configured() {
			respondWithError(w, http.StatusServiceUnavailable, "multiplayer is offline", nil)
			return
		}

		args := map[string]any{}
		if r.Body != nil {
			// An empty body is fine; only malformed JSON is rejected
			if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
				respondWithError(w, http.StatusBadRequest, "invalid request body", err)
				return
			}
		}
		args["userId"] = ProfileID(r)

		result, err := h.client.CallProcedure(r.Context(), name, args)
		if err != nil {
			respondWithError(w, http.StatusBadGateway, "procedure failed", err)
			return
		}
		respondWithJSON(w, http.StatusOK, result)
	}
}
