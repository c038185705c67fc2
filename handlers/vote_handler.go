package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"launchPadAPI/internal/launch"
	"launchPadAPI/middleware"
	"launchPadAPI/services"
)

type VoteHandler struct {
	votingService *services.VotingService
}

func NewVoteHandler(votingService *services.VotingService) *VoteHandler {
	return &VoteHandler{
		votingService: votingService,
	}
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	username, ok := middleware.GetUsername(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	launchID, err := uuid.Parse(mux.Vars(r)["launchId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid launch id")
		return
	}

	var req launch.CastVoteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := h.votingService.CastVote(ctx, launchID, username, req)
	if err != nil {
		log.Printf("CastVote Handler: Service error: %v", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *VoteHandler) RemoveVote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	username, ok := middleware.GetUsername(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	launchID, err := uuid.Parse(mux.Vars(r)["launchId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid launch id")
		return
	}

	if err := h.votingService.RemoveVote(ctx, launchID, username); err != nil {
		log.Printf("RemoveVote Handler: Service error: %v", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
