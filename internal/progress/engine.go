package progress

import (
	"fmt"
	"time"
)

// ErrInvalidGoals is returned when a goal update carries a negative value.
type ErrInvalidGoals struct {
	QuestionGoal int
	UploadGoal   int
}

func (e *ErrInvalidGoals) Error() string {
	return fmt.Sprintf("daily goals must be non-negative, got questions=%d uploads=%d", e.QuestionGoal, e.UploadGoal)
}

// SameDay reports whether a and b fall on the same UTC calendar date.
// Time of day is ignored so the answer does not drift within a session.
func SameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ConsecutiveDay reports whether cur falls exactly one UTC calendar day
// after prev.
func ConsecutiveDay(prev, cur time.Time) bool {
	y, m, d := prev.UTC().Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return SameDay(next, cur)
}

// RecordQuestionAnswered applies one answered question at time now: rolls
// the today counter over on a new UTC day, bumps today and lifetime counts,
// then re-evaluates the daily goal. Returns true when the goal-met event
// fired as a result.
func (p *UserProgress) RecordQuestionAnswered(now time.Time) bool {
	if p.QuestionsAnsweredTodayDate == nil || !SameDay(*p.QuestionsAnsweredTodayDate, now) {
		p.QuestionsAnsweredToday = 0
	}
	p.QuestionsAnsweredToday++
	p.LifetimeQuestionsAnswered++
	t := now.UTC()
	p.QuestionsAnsweredTodayDate = &t
	return p.EvaluateDailyGoal(now)
}

// RecordUpload applies one successful note upload (or regeneration, which
// deliberately counts the same) at time now.
func (p *UserProgress) RecordUpload(now time.Time) bool {
	if p.UploadsTodayDate == nil || !SameDay(*p.UploadsTodayDate, now) {
		p.UploadsToday = 0
	}
	p.UploadsToday++
	p.LifetimeUploads++
	t := now.UTC()
	p.UploadsTodayDate = &t
	return p.EvaluateDailyGoal(now)
}

// SetGoals validates and applies new daily targets, then re-evaluates the
// goal for today: lowering a target can make already-made progress count.
func (p *UserProgress) SetGoals(questionGoal, uploadGoal int, now time.Time) (bool, error) {
	if questionGoal < 0 || uploadGoal < 0 {
		return false, &ErrInvalidGoals{QuestionGoal: questionGoal, UploadGoal: uploadGoal}
	}
	p.DailyQuestionGoal = questionGoal
	p.DailyUploadGoal = uploadGoal
	return p.EvaluateDailyGoal(now), nil
}

// EvaluateDailyGoal runs the goal-met state machine against "today" (UTC at
// now). At most one goal-met event fires per user per calendar day. The
// streak extends only when the previous goal-met day was exactly yesterday;
// a first-ever event, a gap, or a future lastGoalMetDate from clock skew all
// restart it at 1. Returns true when the event fired.
func (p *UserProgress) EvaluateDailyGoal(now time.Time) bool {
	if p.questionsToday(now) < p.DailyQuestionGoal || p.uploadsToday(now) < p.DailyUploadGoal {
		return false
	}
	if p.LastGoalMetDate != nil && SameDay(*p.LastGoalMetDate, now) {
		// Already recorded today.
		return false
	}
	if p.LastGoalMetDate != nil && ConsecutiveDay(*p.LastGoalMetDate, now) {
		p.CurrentStreak++
	} else {
		p.CurrentStreak = 1
	}
	p.DaysGoalsMet++
	t := now.UTC()
	p.LastGoalMetDate = &t
	return true
}

// questionsToday returns the answered-question count valid for now's UTC
// day; a counter carrying a stale date reads as zero.
func (p *UserProgress) questionsToday(now time.Time) int {
	if p.QuestionsAnsweredTodayDate == nil || !SameDay(*p.QuestionsAnsweredTodayDate, now) {
		return 0
	}
	return p.QuestionsAnsweredToday
}

func (p *UserProgress) uploadsToday(now time.Time) int {
	if p.UploadsTodayDate == nil || !SameDay(*p.UploadsTodayDate, now) {
		return 0
	}
	return p.UploadsToday
}
