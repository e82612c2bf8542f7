package app

import (
	"strings"

	"lingo-quest-service/internal/domain"
)

// ScoreAttempt grades one submission against a quest. It is pure: missing or
// garbled answers count as wrong, unknown question types count as wrong, and
// a well-formed question list always produces a result.
func ScoreAttempt(quest domain.Quest, answers domain.SubmittedAnswers) domain.AttemptResult {
	var result domain.AttemptResult
	for _, qq := range quest.Questions {
		points := qq.EffectivePoints()
		result.MaxScore += points
		if answerIsCorrect(qq.Question, answers[qq.ID]) {
			result.Score += points
			result.CorrectCount++
		} else {
			result.WrongCount++
		}
	}
	if result.MaxScore > 0 {
		result.Percentage = 100 * result.Score / result.MaxScore
	}
	result.Passed = result.Percentage >= quest.PassThreshold()
	return result
}

func answerIsCorrect(q domain.Question, submitted string) bool {
	if submitted == "" {
		return false
	}
	switch q.Type {
	case domain.QuestionMultipleChoice:
		if q.CorrectLetter == "" {
			return false
		}
		return strings.ToUpper(strings.TrimSpace(submitted)) == q.CorrectLetter
	case domain.QuestionTrueFalse:
		// The labels are authored literals; comparison is exact.
		return submitted == q.CorrectAnswer
	case domain.QuestionShortAnswer:
		return strings.EqualFold(
			strings.TrimSpace(submitted),
			strings.TrimSpace(q.CorrectAnswer),
		)
	default:
		return false
	}
}

// ComputeReward turns a scored attempt into earned rewards and ledger
// deltas. A failed attempt earns nothing. Earned rewards are per correct
// answer. The ledger is credited in full on the first passed attempt and
// after that only by the difference over the prior best, and only when the
// raw score strictly improves, so the ledger always reflects the single best
// attempt rather than a sum across attempts.
func ComputeReward(quest domain.Quest, result domain.AttemptResult, priorBest *domain.AttemptRecord) domain.Reward {
	var reward domain.Reward
	if !result.Passed {
		return reward
	}
	reward.XPEarned = result.CorrectCount * quest.XPRewardPerCorrect
	reward.CoinsEarned = result.CorrectCount * quest.CoinsRewardPerCorrect

	if priorBest == nil || priorBest.XPEarned == 0 {
		// Nothing has been credited for this quest yet.
		reward.XPDelta = reward.XPEarned
		reward.CoinsDelta = reward.CoinsEarned
		return reward
	}
	if result.Score > priorBest.Score {
		// Reward rates may have changed between attempts; the ledger never
		// decreases through this flow.
		reward.XPDelta = clampNonNegative(reward.XPEarned - priorBest.XPEarned)
		reward.CoinsDelta = clampNonNegative(reward.CoinsEarned - priorBest.CoinsEarned)
	}
	return reward
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
