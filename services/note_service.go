package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyNotesAPI/internal/note"
)

// NoteService stores study notes with their generated practice questions and
// feeds qualifying events into the progress tracker.
type NoteService struct {
	db        *pgxpool.Pool
	generator QuestionGenerator
	progress  *ProgressService
}

func NewNoteService(db *pgxpool.Pool, generator QuestionGenerator, progress *ProgressService) *NoteService {
	return &NoteService{
		db:        db,
		generator: generator,
		progress:  progress,
	}
}

// CreateNote generates questions for the raw text, persists the note with
// its questions and counts the upload toward today's goal.
func (s *NoteService) CreateNote(ctx context.Context, userID, title, notes string) (*note.Note, error) {
	questions, err := s.generator.GenerateQuestions(ctx, title, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	n := &note.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Notes:     notes,
		DateAdded: time.Now().UTC(),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin note insert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO notes (id, user_id, title, notes, date_added)
		VALUES ($1, $2, $3, $4, $5)
	`, n.ID, n.UserID, n.Title, n.Notes, n.DateAdded)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	n.Questions, err = insertQuestions(ctx, tx, n.ID, questions)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit note: %w", err)
	}

	// The note exists regardless of whether the counter lands; a tracker
	// failure here must not roll the note back.
	if _, err := s.progress.RecordUpload(ctx, userID); err != nil {
		log.Printf("Note %s created but upload was not counted: %v", n.ID, err)
	}

	return n, nil
}

func insertQuestions(ctx context.Context, tx pgx.Tx, noteID string, questions []string) ([]note.Question, error) {
	out := make([]note.Question, 0, len(questions))
	for _, q := range questions {
		row := note.Question{
			ID:       uuid.New().String(),
			NoteID:   noteID,
			Question: q,
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO questions (id, note_id, question, completed)
			VALUES ($1, $2, $3, false)
		`, row.ID, row.NoteID, row.Question)
		if err != nil {
			return nil, fmt.Errorf("failed to insert question: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}

// GetUserNotes returns all of the user's notes with questions attached.
func (s *NoteService) GetUserNotes(ctx context.Context, userID string) ([]*note.Note, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, title, notes, date_added
		FROM notes
		WHERE user_id = $1
		ORDER BY date_added DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []*note.Note{}
	byID := map[string]*note.Note{}
	ids := []string{}

	for rows.Next() {
		n := &note.Note{Questions: []note.Question{}}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Notes, &n.DateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
		byID[n.ID] = n
		ids = append(ids, n.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}
	if len(ids) == 0 {
		return notes, nil
	}

	qRows, err := s.db.Query(ctx, `
		SELECT id, note_id, question, completed
		FROM questions
		WHERE note_id = ANY($1::uuid[])
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer qRows.Close()

	for qRows.Next() {
		var q note.Question
		if err := qRows.Scan(&q.ID, &q.NoteID, &q.Question, &q.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if n, ok := byID[q.NoteID]; ok {
			n.Questions = append(n.Questions, q)
		}
	}
	if err := qRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}

	return notes, nil
}

// GetNoteByID returns one of the user's notes. Another user's note reads as
// not found.
func (s *NoteService) GetNoteByID(ctx context.Context, userID, noteID string) (*note.Note, error) {
	n := &note.Note{Questions: []note.Question{}}
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, title, notes, date_added
		FROM notes
		WHERE id = $1 AND user_id = $2
	`, noteID, userID).Scan(&n.ID, &n.UserID, &n.Title, &n.Notes, &n.DateAdded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, note_id, question, completed
		FROM questions
		WHERE note_id = $1
		ORDER BY id
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q note.Question
		if err := rows.Scan(&q.ID, &q.NoteID, &q.Question, &q.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		n.Questions = append(n.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}

	return n, nil
}

// DeleteNote removes the note and its questions.
func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin note delete: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM questions WHERE note_id = $1`, noteID)
	if err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit note delete: %w", err)
	}
	return nil
}

// RegenerateQuestions replaces the note's questions with a fresh batch.
// Regeneration counts as a new upload toward the daily goal, same as the
// original note creation.
func (s *NoteService) RegenerateQuestions(ctx context.Context, userID, noteID string) (*note.Note, error) {
	n, err := s.GetNoteByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	questions, err := s.generator.GenerateQuestions(ctx, n.Title, n.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin regeneration: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM questions WHERE note_id = $1`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear questions: %w", err)
	}

	n.Questions, err = insertQuestions(ctx, tx, noteID, questions)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit regeneration: %w", err)
	}

	if _, err := s.progress.RecordUpload(ctx, userID); err != nil {
		log.Printf("Note %s regenerated but upload was not counted: %v", noteID, err)
	}

	return n, nil
}

// SetQuestionCompleted flips a question's completion flag. Only the
// false-to-true transition counts toward the daily question goal; repeating
// the current state is a no-op. Un-completing and re-completing counts
// again.
func (s *NoteService) SetQuestionCompleted(ctx context.Context, userID, questionID string, completed bool) (*note.Question, error) {
	q := &note.Question{}
	var wasCompleted bool
	err := s.db.QueryRow(ctx, `
		SELECT q.id, q.note_id, q.question, q.completed
		FROM questions q
		JOIN notes n ON n.id = q.note_id
		WHERE q.id = $1 AND n.user_id = $2
	`, questionID, userID).Scan(&q.ID, &q.NoteID, &q.Question, &wasCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	q.Completed = completed
	if wasCompleted == completed {
		return q, nil
	}

	_, err = s.db.Exec(ctx, `UPDATE questions SET completed = $2 WHERE id = $1`, questionID, completed)
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	if !wasCompleted && completed {
		if _, err := s.progress.RecordQuestionAnswered(ctx, userID); err != nil {
			log.Printf("Question %s completed but answer was not counted: %v", questionID, err)
		}
	}

	return q, nil
}
