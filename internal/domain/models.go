package domain

import (
	"sort"
	"time"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

// True/false questions are authored and answered with these literal labels.
const (
	LabelTrue  = "Benar"
	LabelFalse = "Salah"
)

const (
	DefaultMinScoreToPass = 70.0
	DefaultMaxAttempts    = 3
)

// Question is the canonical, normalized form of an authored question.
// Authored data arrives in several ad hoc shapes; Normalize resolves all of
// them to this one before any grading happens.
type Question struct {
	ID              string            `json:"id"`
	Type            QuestionType      `json:"type"`
	Prompt          string            `json:"prompt"`
	OptionsByLetter map[string]string `json:"optionsByLetter,omitempty"`
	CorrectLetter   string            `json:"correctLetter,omitempty"`
	CorrectAnswer   string            `json:"correctAnswer,omitempty"`
	Points          float64           `json:"points"`
}

// QuestQuestion attaches a question to a quest with an ordering and an
// optional per-quest point override. Submitted answers are keyed by the
// QuestQuestion ID, never the underlying question ID: the same question may
// be reused across quests.
type QuestQuestion struct {
	ID             string   `json:"id"`
	Order          int      `json:"order"`
	PointsOverride *float64 `json:"pointsOverride,omitempty"`
	Question       Question `json:"question"`
}

// EffectivePoints is the override when set, else the question's base points.
func (qq QuestQuestion) EffectivePoints() float64 {
	if qq.PointsOverride != nil {
		return *qq.PointsOverride
	}
	return qq.Question.Points
}

// Quest is a gradable set of questions with a pass threshold and reward
// rates. Immutable during an attempt session.
type Quest struct {
	ID                    string          `json:"id"`
	LessonID              string          `json:"lessonId,omitempty"`
	Title                 string          `json:"title,omitempty"`
	Questions             []QuestQuestion `json:"questions"`
	MinScoreToPassPercent float64         `json:"minScoreToPassPercent"`
	MaxAttempts           int             `json:"maxAttempts"`
	XPRewardPerCorrect    int             `json:"xpRewardPerCorrect"`
	CoinsRewardPerCorrect int             `json:"coinsRewardPerCorrect"`
	TimeLimitSeconds      int             `json:"timeLimitSeconds,omitempty"`
}

// PassThreshold returns the configured threshold or the platform default.
func (q Quest) PassThreshold() float64 {
	if q.MinScoreToPassPercent <= 0 {
		return DefaultMinScoreToPass
	}
	return q.MinScoreToPassPercent
}

// AttemptLimit returns the configured attempt cap or the platform default.
func (q Quest) AttemptLimit() int {
	if q.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return q.MaxAttempts
}

// SortQuestions orders questions in place by their authored display order.
func (q Quest) SortQuestions() {
	sort.SliceStable(q.Questions, func(i, j int) bool {
		return q.Questions[i].Order < q.Questions[j].Order
	})
}

// SubmittedAnswers maps QuestQuestion IDs to raw student answers: an option
// letter, the "Benar"/"Salah" label, or free text.
type SubmittedAnswers map[string]string

// AttemptResult is the pure output of scoring one submission.
type AttemptResult struct {
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"maxScore"`
	Percentage   float64 `json:"percentage"`
	CorrectCount int     `json:"correctCount"`
	WrongCount   int     `json:"wrongCount"`
	Passed       bool    `json:"passed"`
}

// Reward is what an attempt earned plus the deltas to apply to the ledger.
// Earned values are stored with the attempt for history; deltas are zero
// unless the attempt clears the improvement gate.
type Reward struct {
	XPEarned    int `json:"xpEarned"`
	CoinsEarned int `json:"coinsEarned"`
	XPDelta     int `json:"xpDelta"`
	CoinsDelta  int `json:"coinsDelta"`
}

// AttemptRecord is one graded submission, keyed by
// (StudentID, QuestID, AttemptNumber).
type AttemptRecord struct {
	StudentID     string           `json:"studentId"`
	QuestID       string           `json:"questId"`
	AttemptNumber int              `json:"attemptNumber"`
	Score         float64          `json:"score"`
	MaxScore      float64          `json:"maxScore"`
	Percentage    float64          `json:"percentage"`
	Passed        bool             `json:"passed"`
	CorrectCount  int              `json:"correctCount"`
	WrongCount    int              `json:"wrongCount"`
	XPEarned      int              `json:"xpEarned"`
	CoinsEarned   int              `json:"coinsEarned"`
	Answers       SubmittedAnswers `json:"answers"`
	CompletedAt   time.Time        `json:"completedAt"`
}

// Profile holds a student's cumulative reward balances.
type Profile struct {
	StudentID string `json:"studentId"`
	XP        int64  `json:"xp"`
	Coins     int64  `json:"coins"`
}

// QuestionView is a question as shown to a student: no answer key.
type QuestionView struct {
	ID      string            `json:"id"`
	Order   int               `json:"order"`
	Type    QuestionType      `json:"type"`
	Prompt  string            `json:"prompt"`
	Options map[string]string `json:"options,omitempty"`
	Points  float64           `json:"points"`
}

// QuestView is the student-facing slice of a quest for an attempt session.
type QuestView struct {
	QuestID          string         `json:"questId"`
	Title            string         `json:"title,omitempty"`
	AttemptNumber    int            `json:"attemptNumber"`
	TimeLimitSeconds int            `json:"timeLimitSeconds,omitempty"`
	Questions        []QuestionView `json:"questions"`
}

// View strips answer keys from the quest for client display.
func (q Quest) View() QuestView {
	questions := make([]QuestionView, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, QuestionView{
			ID:      qq.ID,
			Order:   qq.Order,
			Type:    qq.Question.Type,
			Prompt:  qq.Question.Prompt,
			Options: qq.Question.OptionsByLetter,
			Points:  qq.EffectivePoints(),
		})
	}
	return QuestView{
		QuestID:          q.ID,
		Title:            q.Title,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Questions:        questions,
	}
}
