package domain

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// Authored content reaches the service in a handful of ad hoc shapes:
// options as a letter-keyed object or a bare array, the correct answer as a
// letter, as option text, or as a numeric index. RawQuest is that authored
// shape; Normalize resolves everything to the canonical Question form once,
// at load time, so grading never has to sniff formats.

const optionLetters = "ABCDEF"

// RawQuestion is a question as authored, before normalization.
type RawQuestion struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Prompt        string          `json:"prompt"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correctAnswer"`
	Points        float64         `json:"points"`
}

// RawQuestQuestion joins an authored question into a quest.
type RawQuestQuestion struct {
	ID             string      `json:"id"`
	Order          int         `json:"order"`
	PointsOverride *float64    `json:"pointsOverride,omitempty"`
	Question       RawQuestion `json:"question"`
}

// RawQuest is a quest as stored by the authoring tools.
type RawQuest struct {
	ID                    string             `json:"id"`
	LessonID              string             `json:"lessonId,omitempty"`
	Title                 string             `json:"title,omitempty"`
	Questions             []RawQuestQuestion `json:"questions"`
	MinScoreToPassPercent float64            `json:"minScoreToPassPercent"`
	MaxAttempts           int                `json:"maxAttempts"`
	XPRewardPerCorrect    int                `json:"xpRewardPerCorrect"`
	CoinsRewardPerCorrect int                `json:"coinsRewardPerCorrect"`
	TimeLimitSeconds      int                `json:"timeLimitSeconds,omitempty"`
}

// Normalize converts the authored quest to canonical form and orders its
// questions for display and grading.
func (rq RawQuest) Normalize() Quest {
	quest := Quest{
		ID:                    rq.ID,
		LessonID:              rq.LessonID,
		Title:                 rq.Title,
		MinScoreToPassPercent: rq.MinScoreToPassPercent,
		MaxAttempts:           rq.MaxAttempts,
		XPRewardPerCorrect:    rq.XPRewardPerCorrect,
		CoinsRewardPerCorrect: rq.CoinsRewardPerCorrect,
		TimeLimitSeconds:      rq.TimeLimitSeconds,
	}
	quest.Questions = make([]QuestQuestion, 0, len(rq.Questions))
	for _, rqq := range rq.Questions {
		quest.Questions = append(quest.Questions, QuestQuestion{
			ID:             rqq.ID,
			Order:          rqq.Order,
			PointsOverride: rqq.PointsOverride,
			Question:       NormalizeQuestion(rqq.Question),
		})
	}
	quest.SortQuestions()
	return quest
}

// NormalizeQuestion resolves one authored question to canonical form.
// Malformed option data degrades to no options; an unresolvable correct
// answer leaves CorrectLetter empty, which grades as never-correct.
func NormalizeQuestion(raw RawQuestion) Question {
	q := Question{
		ID:     raw.ID,
		Type:   QuestionType(raw.Type),
		Prompt: raw.Prompt,
		Points: raw.Points,
	}
	switch q.Type {
	case QuestionMultipleChoice:
		q.OptionsByLetter = parseOptions(raw.Options)
		if q.OptionsByLetter == nil && len(raw.Options) > 0 {
			log.Printf("question %s: unparsable options, grading with none", raw.ID)
		}
		q.CorrectLetter = resolveCorrectLetter(raw.CorrectAnswer, q.OptionsByLetter)
	case QuestionTrueFalse:
		q.CorrectAnswer = canonicalTrueFalse(raw.CorrectAnswer)
	default:
		q.CorrectAnswer = raw.CorrectAnswer
	}
	return q
}

// parseOptions accepts either a letter-keyed object or a bare array of
// option texts. Anything else yields no options.
func parseOptions(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	var byLetter map[string]string
	if err := json.Unmarshal(raw, &byLetter); err == nil {
		options := make(map[string]string, len(byLetter))
		for letter, text := range byLetter {
			letter = strings.ToUpper(strings.TrimSpace(letter))
			if len(letter) == 1 && strings.Contains(optionLetters, letter) {
				options[letter] = text
			}
		}
		if len(options) > 0 {
			return options
		}
		return nil
	}

	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil {
		options := make(map[string]string, len(asList))
		for i, text := range asList {
			if i >= len(optionLetters) {
				break
			}
			options[string(optionLetters[i])] = text
		}
		if len(options) > 0 {
			return options
		}
	}
	return nil
}

// resolveCorrectLetter maps an authored correct answer to an option letter.
// Accepted forms, in order: a bare letter, an exact text match against the
// option texts, and a numeric index (0=A..3=D). Text lookup runs before the
// index form so an option whose text is itself a number is not misread.
func resolveCorrectLetter(correct string, options map[string]string) string {
	correct = strings.TrimSpace(correct)
	if correct == "" {
		return ""
	}

	upper := strings.ToUpper(correct)
	if len(upper) == 1 && strings.Contains(optionLetters, upper) {
		return upper
	}

	// Reverse lookup by option text; scan letters in order so ties resolve
	// to the first match.
	for i := 0; i < len(optionLetters); i++ {
		letter := string(optionLetters[i])
		if text, ok := options[letter]; ok && text == correct {
			return letter
		}
	}

	if idx, err := strconv.Atoi(correct); err == nil && idx >= 0 && idx <= 3 {
		return string(optionLetters[idx])
	}
	return ""
}

// canonicalTrueFalse maps boolean-as-text authoring to the platform labels.
// Already-canonical labels and anything unrecognized pass through as
// authored; comparison stays exact at grading time.
func canonicalTrueFalse(correct string) string {
	switch strings.ToLower(strings.TrimSpace(correct)) {
	case "true", strings.ToLower(LabelTrue):
		return LabelTrue
	case "false", strings.ToLower(LabelFalse):
		return LabelFalse
	}
	return correct
}
