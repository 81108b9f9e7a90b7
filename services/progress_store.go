package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyNotesAPI/internal/progress"
)

// ProgressStore is the per-user progress document store. Update must behave
// as an atomic read-modify-write: two concurrent updates for the same user
// both land, in some order, with no lost increments.
type ProgressStore interface {
	// Get returns the user's record, or a fresh defaulted record when none
	// exists yet. It never mutates storage.
	Get(ctx context.Context, userID string) (*progress.UserProgress, error)

	// Update loads the record (creating it with defaults if absent), applies
	// fn under a per-user write lock and persists the result. Nothing is
	// committed when fn or the write fails.
	Update(ctx context.Context, userID string, fn func(*progress.UserProgress) error) (*progress.UserProgress, error)
}

type PostgresProgressStore struct {
	db *pgxpool.Pool
}

func NewPostgresProgressStore(db *pgxpool.Pool) *PostgresProgressStore {
	return &PostgresProgressStore{db: db}
}

const progressColumns = `
	questions_answered_today, questions_answered_today_date, lifetime_questions_answered,
	uploads_today, uploads_today_date, lifetime_uploads,
	daily_question_goal, daily_upload_goal,
	current_streak, days_goals_met, last_goal_met_date`

func scanProgress(row pgx.Row) (*progress.UserProgress, error) {
	p := &progress.UserProgress{}
	err := row.Scan(
		&p.QuestionsAnsweredToday, &p.QuestionsAnsweredTodayDate, &p.LifetimeQuestionsAnswered,
		&p.UploadsToday, &p.UploadsTodayDate, &p.LifetimeUploads,
		&p.DailyQuestionGoal, &p.DailyUploadGoal,
		&p.CurrentStreak, &p.DaysGoalsMet, &p.LastGoalMetDate,
	)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return p, nil
}

func (s *PostgresProgressStore) Get(ctx context.Context, userID string) (*progress.UserProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE firebase_uid = $1`

	p, err := scanProgress(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progress.NewUserProgress(), nil
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return p, nil
}

func (s *PostgresProgressStore) Update(ctx context.Context, userID string, fn func(*progress.UserProgress) error) (*progress.UserProgress, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin progress update: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lazy create with defaults; a no-op when the row already exists.
	_, err = tx.Exec(ctx, `
		INSERT INTO user_progress (firebase_uid, daily_question_goal, daily_upload_goal)
		VALUES ($1, $2, $3)
		ON CONFLICT (firebase_uid) DO NOTHING
	`, userID, progress.DefaultDailyQuestionGoal, progress.DefaultDailyUploadGoal)
	if err != nil {
		return nil, fmt.Errorf("failed to init user progress: %w", err)
	}

	// The row lock serializes concurrent updates for the same user;
	// different users never contend.
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE firebase_uid = $1 FOR UPDATE`
	p, err := scanProgress(tx.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user progress: %w", err)
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_progress SET
			questions_answered_today = $2, questions_answered_today_date = $3, lifetime_questions_answered = $4,
			uploads_today = $5, uploads_today_date = $6, lifetime_uploads = $7,
			daily_question_goal = $8, daily_upload_goal = $9,
			current_streak = $10, days_goals_met = $11, last_goal_met_date = $12,
			updated_at = NOW()
		WHERE firebase_uid = $1
	`, userID,
		p.QuestionsAnsweredToday, p.QuestionsAnsweredTodayDate, p.LifetimeQuestionsAnswered,
		p.UploadsToday, p.UploadsTodayDate, p.LifetimeUploads,
		p.DailyQuestionGoal, p.DailyUploadGoal,
		p.CurrentStreak, p.DaysGoalsMet, p.LastGoalMetDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save user progress: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit progress update: %w", err)
	}

	return p, nil
}

// MemoryProgressStore keeps records in process memory. The engine tests run
// against it so day-boundary behavior is deterministic and database-free.
type MemoryProgressStore struct {
	mu      sync.Mutex
	records map[string]*progress.UserProgress
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{records: make(map[string]*progress.UserProgress)}
}

func (s *MemoryProgressStore) Get(ctx context.Context, userID string) (*progress.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[userID]
	if !ok {
		return progress.NewUserProgress(), nil
	}
	clone := *p
	return &clone, nil
}

func (s *MemoryProgressStore) Update(ctx context.Context, userID string, fn func(*progress.UserProgress) error) (*progress.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[userID]
	if !ok {
		p = progress.NewUserProgress()
	}

	work := *p
	if err := fn(&work); err != nil {
		return nil, err
	}

	s.records[userID] = &work
	result := work
	return &result, nil
}

var (
	_ ProgressStore = (*PostgresProgressStore)(nil)
	_ ProgressStore = (*MemoryProgressStore)(nil)
)
