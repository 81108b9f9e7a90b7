package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"studyNotesAPI/internal/note"
	"studyNotesAPI/middleware"
	"studyNotesAPI/services"
)

type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
	}
}

// CreateNote takes raw note text, generates practice questions for it and
// counts the upload toward today's goal.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req note.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Notes) == "" {
		respondWithError(w, http.StatusBadRequest, "Both 'title' and 'notes' are required")
		return
	}

	created, err := h.noteService.CreateNote(ctx, authUser.UID, req.Title, req.Notes)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create note")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	notes, err := h.noteService.GetUserNotes(ctx, authUser.UID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load notes")
		return
	}

	respondWithJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	noteID := mux.Vars(r)["noteId"]

	n, err := h.noteService.GetNoteByID(ctx, authUser.UID, noteID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Note not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load note")
		return
	}

	respondWithJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	noteID := mux.Vars(r)["noteId"]

	if err := h.noteService.DeleteNote(ctx, authUser.UID, noteID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Note not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete note")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RegenerateQuestions replaces the note's questions with a fresh batch and
// counts it as a new upload.
func (h *NoteHandler) RegenerateQuestions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	noteID := mux.Vars(r)["noteId"]

	n, err := h.noteService.RegenerateQuestions(ctx, authUser.UID, noteID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Note not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to regenerate questions")
		return
	}

	respondWithJSON(w, http.StatusOK, n)
}

// UpdateQuestion flips a question's completion flag. Completing a question
// counts toward the daily goal; re-sending the current state is a no-op.
func (h *NoteHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authUser, ok := middleware.GetAuthUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	questionID := mux.Vars(r)["questionId"]

	var req note.UpdateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	q, err := h.noteService.SetQuestionCompleted(ctx, authUser.UID, questionID, req.Completed)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Question not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	respondWithJSON(w, http.StatusOK, q)
}
