package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"launchPadAPI/services"
)

type StationHandler struct {
	stationService *services.StationService
}

func NewStationHandler(stationService *services.StationService) *StationHandler {
	return &StationHandler{
		stationService: stationService,
	}
}

func (h *StationHandler) GetStationByLaunch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	launchID, err := uuid.Parse(mux.Vars(r)["launchId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid launch id")
		return
	}

	detail, err := h.stationService.GetStationByLaunch(ctx, launchID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}
