package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/launch"
	"launchPadAPI/middleware"
	"launchPadAPI/services"
)

type LaunchHandler struct {
	launchService *services.LaunchService
}

func NewLaunchHandler(launchService *services.LaunchService) *LaunchHandler {
	return &LaunchHandler{
		launchService: launchService,
	}
}

func (h *LaunchHandler) SubmitLaunch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	username, ok := middleware.GetUsername(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req launch.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	launchID, err := h.launchService.SubmitLaunch(ctx, username, &req)
	if err != nil {
		log.Printf("SubmitLaunch Handler: Service error: %v", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"launchId": launchID.String()})
}

func (h *LaunchHandler) GetCurrentWeekLaunches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	launches, err := h.launchService.GetCurrentWeekLaunches(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, launches)
}

func (h *LaunchHandler) GetWeeklyLaunches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	weekNumber := mux.Vars(r)["weekNumber"]
	if weekNumber == "" {
		respondWithError(w, http.StatusBadRequest, "weekNumber is required")
		return
	}

	launches, err := h.launchService.GetWeeklyLaunches(ctx, weekNumber)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, launches)
}

func (h *LaunchHandler) GetWeeklyResult(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	weekNumber := mux.Vars(r)["weekNumber"]

	result, err := h.launchService.GetWeeklyResult(ctx, weekNumber)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// FinalizeWeek closes a week on demand. The scheduled worker is the normal
// caller; this endpoint exists for operators re-running a missed week.
func (h *LaunchHandler) FinalizeWeek(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	weekNumber := r.URL.Query().Get("weekNumber")

	var result *launch.FinalizeResult
	var err error
	if weekNumber == "" {
		result, err = h.launchService.FinalizeCurrentWeek(ctx)
	} else {
		result, err = h.launchService.FinalizeWeek(ctx, weekNumber)
	}
	if err != nil {
		log.Printf("FinalizeWeek Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to finalize week")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
