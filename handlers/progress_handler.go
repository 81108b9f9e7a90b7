package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"studyNotesAPI/internal/progress"
	"studyNotesAPI/middleware"
	"studyNotesAPI/services"
)

type ProgressHandler struct {
	progressService *services.ProgressService
}

func NewProgressHandler(progressService *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

// GetStats returns the full progress projection. Date fields marshal as
// RFC 3339 strings or null.
func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	stats, err := h.progressService.GetStats(ctx, authUser.UID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ProgressHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goals, err := h.progressService.GetGoals(ctx, authUser.UID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load goals")
		return
	}

	respondWithJSON(w, http.StatusOK, goals)
}

// UpdateGoals sets new daily targets. Lowering a target can immediately fire
// today's goal-met event, so the fresh projection comes back in the reply.
func (h *ProgressHandler) UpdateGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req progress.Goals
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.progressService.SetGoals(ctx, authUser.UID, req.DailyQuestionGoal, req.DailyUploadGoal)
	if err != nil {
		var invalid *progress.ErrInvalidGoals
		if errors.As(err, &invalid) {
			respondWithError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update goals")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
