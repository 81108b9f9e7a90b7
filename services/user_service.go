package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyNotesAPI/internal/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// EnsureUser creates the user row on first authenticated request and bumps
// the login bookkeeping on every later one. The upsert keeps concurrent
// first requests from racing each other.
func (s *UserService) EnsureUser(ctx context.Context, req *user.EnsureUserRequest) (*user.User, error) {
	u := &user.User{}
	query := `
	INSERT INTO users (id, firebase_uid, email, display_name, photo_url, provider, login_count, last_login_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 1, NOW(), NOW(), NOW())
	ON CONFLICT (firebase_uid) DO UPDATE SET
		login_count = users.login_count + 1,
		last_login_at = NOW(),
		updated_at = NOW()
	RETURNING id, firebase_uid, email, display_name, photo_url, provider, login_count, last_login_at, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		uuid.New().String(),
		req.FirebaseUID,
		req.Email,
		req.DisplayName,
		req.PhotoURL,
		req.Provider,
	).Scan(
		&u.ID,
		&u.FirebaseUID,
		&u.Email,
		&u.DisplayName,
		&u.PhotoURL,
		&u.Provider,
		&u.LoginCount,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*user.User, error) {
	query := `
	SELECT id, firebase_uid, email, display_name, photo_url, provider, login_count, last_login_at, created_at, updated_at
	FROM users
	WHERE firebase_uid = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, firebaseUID).Scan(
		&u.ID,
		&u.FirebaseUID,
		&u.Email,
		&u.DisplayName,
		&u.PhotoURL,
		&u.Provider,
		&u.LoginCount,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// DeleteUser removes the account and everything hanging off it so nothing
// is orphaned.
func (s *UserService) DeleteUser(ctx context.Context, firebaseUID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin account delete: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM questions WHERE note_id IN (SELECT id FROM notes WHERE user_id = $1)
	`, firebaseUID)
	if err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM notes WHERE user_id = $1`, firebaseUID); err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_progress WHERE firebase_uid = $1`, firebaseUID); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM device_tokens WHERE firebase_uid = $1`, firebaseUID); err != nil {
		return fmt.Errorf("failed to delete device tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM notifications WHERE firebase_uid = $1`, firebaseUID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE firebase_uid = $1`, firebaseUID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account delete: %w", err)
	}
	return nil
}
