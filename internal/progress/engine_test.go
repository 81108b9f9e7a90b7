package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	day2 = day1.AddDate(0, 0, 1)
	day3 = day1.AddDate(0, 0, 2)
)

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(day1, day1.Add(8*time.Hour)))
	assert.False(t, SameDay(day1, day2))

	// 23:30 UTC vs 00:30 UTC next day are different calendar days even
	// though they are an hour apart.
	late := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.False(t, SameDay(late, late.Add(time.Hour)))
}

func TestConsecutiveDay(t *testing.T) {
	assert.True(t, ConsecutiveDay(day1, day2))
	assert.True(t, ConsecutiveDay(day1.Add(9*time.Hour), day2.Add(-14*time.Hour)))
	assert.False(t, ConsecutiveDay(day1, day3))
	assert.False(t, ConsecutiveDay(day1, day1))
	assert.False(t, ConsecutiveDay(day2, day1))

	// Month boundary.
	eom := time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)
	assert.True(t, ConsecutiveDay(eom, time.Date(2025, 3, 1, 0, 5, 0, 0, time.UTC)))
}

func TestRecordQuestionAnsweredSameDayAccumulates(t *testing.T) {
	p := NewUserProgress()
	for i := 1; i <= 4; i++ {
		p.RecordQuestionAnswered(day1.Add(time.Duration(i) * time.Minute))
		assert.Equal(t, i, p.QuestionsAnsweredToday)
		assert.Equal(t, i, p.LifetimeQuestionsAnswered)
	}
	require.NotNil(t, p.QuestionsAnsweredTodayDate)
	assert.True(t, SameDay(*p.QuestionsAnsweredTodayDate, day1))
}

func TestRecordQuestionAnsweredDayRollover(t *testing.T) {
	p := NewUserProgress()
	p.RecordQuestionAnswered(day1)
	p.RecordQuestionAnswered(day1)
	p.RecordQuestionAnswered(day1)

	p.RecordQuestionAnswered(day2)
	assert.Equal(t, 1, p.QuestionsAnsweredToday, "counter restarts at 1 on a new day")
	assert.Equal(t, 4, p.LifetimeQuestionsAnswered, "lifetime keeps growing")
}

func TestRecordUploadDayRollover(t *testing.T) {
	p := NewUserProgress()
	p.RecordUpload(day1)
	p.RecordUpload(day2)
	assert.Equal(t, 1, p.UploadsToday)
	assert.Equal(t, 2, p.LifetimeUploads)
}

func TestGoalMetScenario(t *testing.T) {
	// Defaults: 5 questions, 2 uploads.
	p := NewUserProgress()

	for i := 0; i < 4; i++ {
		p.RecordQuestionAnswered(day1)
	}
	p.RecordUpload(day1)
	assert.Equal(t, 0, p.CurrentStreak, "4/5 questions and 1/2 uploads is not enough")
	assert.Equal(t, 0, p.DaysGoalsMet)

	p.RecordQuestionAnswered(day1)
	assert.Equal(t, 0, p.CurrentStreak, "upload goal still short")

	fired := p.RecordUpload(day1)
	assert.True(t, fired)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.DaysGoalsMet)
	require.NotNil(t, p.LastGoalMetDate)
	assert.True(t, SameDay(*p.LastGoalMetDate, day1))
}

func TestGoalMetIdempotentWithinDay(t *testing.T) {
	p := NewUserProgress()
	for i := 0; i < 5; i++ {
		p.RecordQuestionAnswered(day1)
	}
	p.RecordUpload(day1)
	p.RecordUpload(day1)
	assert.Equal(t, 1, p.DaysGoalsMet)
	assert.Equal(t, 1, p.CurrentStreak)

	// More activity and repeated evaluations on the same day change nothing.
	for i := 0; i < 10; i++ {
		p.RecordQuestionAnswered(day1)
		p.EvaluateDailyGoal(day1)
	}
	assert.Equal(t, 1, p.DaysGoalsMet)
	assert.Equal(t, 1, p.CurrentStreak)
}

func meetGoals(p *UserProgress, day time.Time) {
	for p.questionsToday(day) < p.DailyQuestionGoal {
		p.RecordQuestionAnswered(day)
	}
	for p.uploadsToday(day) < p.DailyUploadGoal {
		p.RecordUpload(day)
	}
}

func TestStreakExtendsOnConsecutiveDays(t *testing.T) {
	p := NewUserProgress()
	meetGoals(p, day1)
	meetGoals(p, day2)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, 2, p.DaysGoalsMet)
}

func TestStreakResetsAfterGap(t *testing.T) {
	p := NewUserProgress()
	meetGoals(p, day1)
	meetGoals(p, day2)
	// Nothing on day 3.
	meetGoals(p, day1.AddDate(0, 0, 3))
	assert.Equal(t, 1, p.CurrentStreak, "a missed day breaks the streak")
	assert.Equal(t, 3, p.DaysGoalsMet, "lifetime met-days keeps counting")
}

func TestStreakResetsOnClockSkew(t *testing.T) {
	p := NewUserProgress()
	meetGoals(p, day3)
	// lastGoalMetDate is now in the future relative to day1.
	meetGoals(p, day1)
	assert.Equal(t, 1, p.CurrentStreak)
}

func TestStaleCountersDoNotSatisfyGoal(t *testing.T) {
	p := NewUserProgress()
	meetGoals(p, day1)
	assert.Equal(t, 1, p.DaysGoalsMet)

	// Counters from day1 are still >= the goals but belong to a stale day;
	// a bare evaluation on day2 must not fire.
	fired := p.EvaluateDailyGoal(day2)
	assert.False(t, fired)
	assert.Equal(t, 1, p.DaysGoalsMet)
	assert.Equal(t, 1, p.CurrentStreak)
}

func TestSetGoalsValidation(t *testing.T) {
	p := NewUserProgress()
	_, err := p.SetGoals(-1, 2, day1)
	require.Error(t, err)

	var invalid *ErrInvalidGoals
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, DefaultDailyQuestionGoal, p.DailyQuestionGoal, "no state change on invalid input")

	_, err = p.SetGoals(3, -2, day1)
	require.Error(t, err)
}

func TestLoweringGoalFiresImmediately(t *testing.T) {
	p := NewUserProgress()
	p.RecordQuestionAnswered(day1)
	p.RecordQuestionAnswered(day1)
	p.RecordQuestionAnswered(day1)
	p.RecordUpload(day1)
	p.RecordUpload(day1)
	assert.Equal(t, 0, p.DaysGoalsMet, "3/5 questions is short of the default goal")

	fired, err := p.SetGoals(2, 2, day1)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.DaysGoalsMet)
}

func TestZeroGoalsAreTriviallyMet(t *testing.T) {
	p := NewUserProgress()
	fired, err := p.SetGoals(0, 0, day1)
	require.NoError(t, err)
	assert.True(t, fired, "a 0/0 goal is trivially met")
	assert.Equal(t, 1, p.CurrentStreak)
}

func TestNormalizeRepairsLegacyRecord(t *testing.T) {
	p := &UserProgress{
		QuestionsAnsweredToday: -3,
		DailyQuestionGoal:      -1,
		DailyUploadGoal:        -1,
		CurrentStreak:          -2,
	}
	p.Normalize()
	assert.Equal(t, 0, p.QuestionsAnsweredToday)
	assert.Equal(t, DefaultDailyQuestionGoal, p.DailyQuestionGoal)
	assert.Equal(t, DefaultDailyUploadGoal, p.DailyUploadGoal)
	assert.Equal(t, 0, p.CurrentStreak)
}
