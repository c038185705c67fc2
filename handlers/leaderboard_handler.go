package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"launchPadAPI/middleware"
	"launchPadAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	snap, err := h.leaderboardService.GetSnapshot(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap == nil {
		respondWithError(w, http.StatusNotFound, "Leaderboard snapshot not available yet")
		return
	}

	respondWithJSON(w, http.StatusOK, snap)
}

func (h *LeaderboardHandler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rating, err := strconv.ParseFloat(r.URL.Query().Get("rating"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'rating' is required")
		return
	}

	userRank, err := h.leaderboardService.GetUserRank(ctx, rating)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, userRank)
}

// UpsertAnalysis records the caller's overall rating. The next snapshot rebuild
// picks it up; the response does not wait for one.
func (h *LeaderboardHandler) UpsertAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	username, ok := middleware.GetUsername(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		OverallRating float64 `json:"overallRating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.leaderboardService.UpsertAnalysis(ctx, username, req.OverallRating); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
