package progress

import "time"

const (
	DefaultDailyQuestionGoal = 5
	DefaultDailyUploadGoal   = 2
)

// UserProgress is the per-user daily goal and streak record. The "today"
// counters are only valid while their paired date is still the current UTC
// day; anything older is stale and counts as zero.
type UserProgress struct {
	QuestionsAnsweredToday     int        `json:"questionsAnsweredToday"`
	QuestionsAnsweredTodayDate *time.Time `json:"questionsAnsweredTodayDate"`
	LifetimeQuestionsAnswered  int        `json:"lifetimeQuestionsAnswered"`
	UploadsToday               int        `json:"uploadsToday"`
	UploadsTodayDate           *time.Time `json:"uploadsTodayDate"`
	LifetimeUploads            int        `json:"lifetimeUploads"`
	DailyQuestionGoal          int        `json:"dailyQuestionGoal"`
	DailyUploadGoal            int        `json:"dailyUploadGoal"`
	CurrentStreak              int        `json:"currentStreak"`
	DaysGoalsMet               int        `json:"daysGoalsMet"`
	LastGoalMetDate            *time.Time `json:"lastGoalMetDate"`
}

func NewUserProgress() *UserProgress {
	return &UserProgress{
		DailyQuestionGoal: DefaultDailyQuestionGoal,
		DailyUploadGoal:   DefaultDailyUploadGoal,
	}
}

// Normalize repairs a partially-initialized record read from storage.
// Counters never go negative and rows written before the goal columns
// existed get the defaults back.
func (p *UserProgress) Normalize() {
	if p.QuestionsAnsweredToday < 0 {
		p.QuestionsAnsweredToday = 0
	}
	if p.UploadsToday < 0 {
		p.UploadsToday = 0
	}
	if p.LifetimeQuestionsAnswered < 0 {
		p.LifetimeQuestionsAnswered = 0
	}
	if p.LifetimeUploads < 0 {
		p.LifetimeUploads = 0
	}
	if p.CurrentStreak < 0 {
		p.CurrentStreak = 0
	}
	if p.DaysGoalsMet < 0 {
		p.DaysGoalsMet = 0
	}
	if p.DailyQuestionGoal < 0 {
		p.DailyQuestionGoal = DefaultDailyQuestionGoal
	}
	if p.DailyUploadGoal < 0 {
		p.DailyUploadGoal = DefaultDailyUploadGoal
	}
}

type Goals struct {
	DailyQuestionGoal int `json:"dailyQuestionGoal"`
	DailyUploadGoal   int `json:"dailyUploadGoal"`
}

func (p *UserProgress) Goals() Goals {
	return Goals{
		DailyQuestionGoal: p.DailyQuestionGoal,
		DailyUploadGoal:   p.DailyUploadGoal,
	}
}
