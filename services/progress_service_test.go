package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyNotesAPI/internal/progress"
)

func newTestProgressService(t *testing.T, at time.Time) (*ProgressService, *time.Time) {
	t.Helper()
	clock := at
	svc := NewProgressService(NewMemoryProgressStore(), nil)
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func TestRecordQuestionAnsweredCounts(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestProgressService(t, day1)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		p, err := svc.RecordQuestionAnswered(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, i, p.QuestionsAnsweredToday)
		assert.Equal(t, i, p.LifetimeQuestionsAnswered)
	}

	// A second user is fully independent.
	p, err := svc.RecordQuestionAnswered(ctx, "uid-2")
	require.NoError(t, err)
	assert.Equal(t, 1, p.QuestionsAnsweredToday)
}

func TestRecordQuestionAnsweredRollsOverAtMidnight(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	svc, clock := newTestProgressService(t, day1)
	ctx := context.Background()

	_, err := svc.RecordQuestionAnswered(ctx, "uid-1")
	require.NoError(t, err)
	_, err = svc.RecordQuestionAnswered(ctx, "uid-1")
	require.NoError(t, err)

	*clock = day1.Add(20 * time.Minute) // 00:10 the next day
	p, err := svc.RecordQuestionAnswered(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.QuestionsAnsweredToday)
	assert.Equal(t, 3, p.LifetimeQuestionsAnswered)
}

func TestStreakAcrossDays(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, clock := newTestProgressService(t, day1)
	ctx := context.Background()

	meet := func() {
		for i := 0; i < progress.DefaultDailyQuestionGoal; i++ {
			_, err := svc.RecordQuestionAnswered(ctx, "uid-1")
			require.NoError(t, err)
		}
		for i := 0; i < progress.DefaultDailyUploadGoal; i++ {
			_, err := svc.RecordUpload(ctx, "uid-1")
			require.NoError(t, err)
		}
	}

	meet()
	p, err := svc.GetStats(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.DaysGoalsMet)

	*clock = day1.AddDate(0, 0, 1)
	meet()
	p, err = svc.GetStats(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentStreak)

	// Skip a day; streak restarts at 1.
	*clock = day1.AddDate(0, 0, 3)
	meet()
	p, err = svc.GetStats(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 3, p.DaysGoalsMet)
}

func TestSetGoalsValidatesAndReevaluates(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestProgressService(t, day1)
	ctx := context.Background()

	_, err := svc.SetGoals(ctx, "uid-1", -5, 2)
	var invalid *progress.ErrInvalidGoals
	require.ErrorAs(t, err, &invalid)

	// Partial progress, then a retroactive lowering meets today's target.
	for i := 0; i < 3; i++ {
		_, err := svc.RecordQuestionAnswered(ctx, "uid-1")
		require.NoError(t, err)
	}
	_, err = svc.RecordUpload(ctx, "uid-1")
	require.NoError(t, err)

	p, err := svc.SetGoals(ctx, "uid-1", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.DaysGoalsMet)
}

func TestGetStatsDefaultsForNewUser(t *testing.T) {
	svc, _ := newTestProgressService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	p, err := svc.GetStats(context.Background(), "brand-new")
	require.NoError(t, err)
	assert.Equal(t, progress.DefaultDailyQuestionGoal, p.DailyQuestionGoal)
	assert.Equal(t, progress.DefaultDailyUploadGoal, p.DailyUploadGoal)
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Nil(t, p.QuestionsAnsweredTodayDate)
	assert.Nil(t, p.LastGoalMetDate)
}

func TestConcurrentAnswersAllLand(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestProgressService(t, day1)
	ctx := context.Background()

	const calls = 50
	var wg sync.WaitGroup
	wg.Add(calls)
	for i := 0; i < calls; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RecordQuestionAnswered(ctx, "uid-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := svc.GetStats(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, calls, p.QuestionsAnsweredToday, "no lost updates")
	assert.Equal(t, calls, p.LifetimeQuestionsAnswered)
	assert.Equal(t, 0, p.CurrentStreak, "upload goal still unmet")
}

func TestStoreErrorLeavesNoPartialState(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestProgressService(t, day1)
	ctx := context.Background()

	// The memory store only commits when fn succeeds; a failing callback
	// must not leak counter changes.
	store := svc.store.(*MemoryProgressStore)
	_, err := store.Update(ctx, "uid-1", func(p *progress.UserProgress) error {
		p.RecordQuestionAnswered(day1)
		return context.DeadlineExceeded
	})
	require.Error(t, err)

	p, err := svc.GetStats(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.QuestionsAnsweredToday)
	assert.Equal(t, 0, p.LifetimeQuestionsAnswered)
}
