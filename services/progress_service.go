package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"studyNotesAPI/internal/progress"
	"studyNotesAPI/middleware"
)

// ProgressService owns the daily-goal and streak bookkeeping for every
// qualifying user action. All mutations run through the store's atomic
// read-modify-write, so concurrent events for one user serialize there.
type ProgressService struct {
	store         ProgressStore
	notifications *NotificationService
	now           func() time.Time
}

// NewProgressService wires the tracker. notifications may be nil to disable
// goal-met pushes. The clock is injected so day-boundary behavior is
// testable without waiting for a real rollover.
func NewProgressService(store ProgressStore, notifications *NotificationService) *ProgressService {
	return &ProgressService{
		store:         store,
		notifications: notifications,
		now:           time.Now,
	}
}

// RecordQuestionAnswered registers one question moving to completed. Callers
// must only invoke it on the false-to-true transition.
func (s *ProgressService) RecordQuestionAnswered(ctx context.Context, userID string) (*progress.UserProgress, error) {
	var met bool
	p, err := s.store.Update(ctx, userID, func(p *progress.UserProgress) error {
		met = p.RecordQuestionAnswered(s.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record answered question: %w", err)
	}
	if met {
		s.notifyGoalMet(userID, p.CurrentStreak)
	}
	return p, nil
}

// RecordUpload registers one successful note creation or regeneration.
func (s *ProgressService) RecordUpload(ctx context.Context, userID string) (*progress.UserProgress, error) {
	var met bool
	p, err := s.store.Update(ctx, userID, func(p *progress.UserProgress) error {
		met = p.RecordUpload(s.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	if met {
		s.notifyGoalMet(userID, p.CurrentStreak)
	}
	return p, nil
}

// SetGoals validates and persists new daily targets, then re-evaluates
// today's goal: lowering a target can fire the goal-met event immediately.
func (s *ProgressService) SetGoals(ctx context.Context, userID string, questionGoal, uploadGoal int) (*progress.UserProgress, error) {
	if questionGoal < 0 || uploadGoal < 0 {
		return nil, &progress.ErrInvalidGoals{QuestionGoal: questionGoal, UploadGoal: uploadGoal}
	}

	var met bool
	p, err := s.store.Update(ctx, userID, func(p *progress.UserProgress) error {
		fired, err := p.SetGoals(questionGoal, uploadGoal, s.now())
		met = fired
		return err
	})
	if err != nil {
		return nil, err
	}
	if met {
		s.notifyGoalMet(userID, p.CurrentStreak)
	}
	return p, nil
}

// GetStats returns the full progress projection, defaulted when the user has
// no record yet.
func (s *ProgressService) GetStats(ctx context.Context, userID string) (*progress.UserProgress, error) {
	return s.store.Get(ctx, userID)
}

func (s *ProgressService) GetGoals(ctx context.Context, userID string) (progress.Goals, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return progress.Goals{}, err
	}
	return p.Goals(), nil
}

// notifyGoalMet fires the push path off the request goroutine. The counters
// are already committed; a notification failure only gets logged.
func (s *ProgressService) notifyGoalMet(userID string, streak int) {
	middleware.CountGoalMet()
	if s.notifications == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifications.NotifyGoalMet(ctx, userID, streak); err != nil {
			log.Printf("Failed to send goal-met notification for user %s: %v", userID, err)
		}
	}()
}
