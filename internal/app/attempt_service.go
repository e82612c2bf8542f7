package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"lingo-quest-service/internal/domain"
)

// QuestRepository loads quest content (from cache/backing store).
type QuestRepository interface {
	GetQuest(ctx context.Context, questID string) (domain.Quest, error)
}

// AttemptStore persists graded attempts, one record per
// (student, quest, attempt number).
type AttemptStore interface {
	// NextAttemptNumber is one more than the current maximum for the pair,
	// or 1 if none exist. Read immediately before grading.
	NextAttemptNumber(ctx context.Context, studentID, questID string) (int, error)
	// BestAttempt returns the record with the highest score, ties broken by
	// earliest completion, or nil when the student has no attempts.
	BestAttempt(ctx context.Context, studentID, questID string) (*domain.AttemptRecord, error)
	// Save upserts by (studentID, questID, attemptNumber); a retry of the
	// same attempt number overwrites rather than duplicates.
	Save(ctx context.Context, record domain.AttemptRecord) error
	// MaxAttemptsReached reports whether the student has used up the quest's
	// attempt budget.
	MaxAttemptsReached(ctx context.Context, studentID, questID string, maxAttempts int) (bool, error)
}

// ProfileLedger holds cumulative XP/coins per student and is mutated only
// through additive deltas.
type ProfileLedger interface {
	ApplyDelta(ctx context.Context, studentID string, xpDelta, coinsDelta int) error
	Profile(ctx context.Context, studentID string) (domain.Profile, error)
}

// AttemptSummary is the observable result of one submission, used by the
// presentation layer to render the results screen.
type AttemptSummary struct {
	AttemptNumber int     `json:"attemptNumber"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"maxScore"`
	Percentage    float64 `json:"percentage"`
	CorrectCount  int     `json:"correctCount"`
	WrongCount    int     `json:"wrongCount"`
	Passed        bool    `json:"passed"`
	XPEarned      int     `json:"xpEarned"`
	CoinsEarned   int     `json:"coinsEarned"`
	XPDelta       int     `json:"xpDelta"`
	CoinsDelta    int     `json:"coinsDelta"`
	// LedgerLagged is set when the attempt was recorded but the ledger
	// update failed; the attempt stands and reconciliation is a follow-up.
	LedgerLagged bool `json:"ledgerLagged,omitempty"`
}

// AttemptService contains the quest attempt use cases: start an attempt
// session, grade a submission, and reconcile rewards.
type AttemptService struct {
	quests   QuestRepository
	attempts AttemptStore
	ledger   ProfileLedger
	now      func() time.Time
}

func NewAttemptService(quests QuestRepository, attempts AttemptStore, ledger ProfileLedger) *AttemptService {
	return &AttemptService{quests: quests, attempts: attempts, ledger: ledger, now: time.Now}
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(quests QuestRepository, attempts AttemptStore, ledger ProfileLedger, now func() time.Time) *AttemptService {
	return &AttemptService{quests: quests, attempts: attempts, ledger: ledger, now: now}
}

// Start opens an attempt session: it enforces the attempt limit before any
// questions are shown and returns the student-facing quest view with the
// attempt number the submission will get.
func (s *AttemptService) Start(ctx context.Context, studentID, questID string) (domain.QuestView, error) {
	quest, err := s.quests.GetQuest(ctx, questID)
	if err != nil {
		return domain.QuestView{}, err
	}

	reached, err := s.attempts.MaxAttemptsReached(ctx, studentID, questID, quest.AttemptLimit())
	if err != nil {
		return domain.QuestView{}, fmt.Errorf("check attempt limit: %w", err)
	}
	if reached {
		return domain.QuestView{}, domain.ErrMaxAttemptsReached
	}

	view := quest.View()
	next, err := s.attempts.NextAttemptNumber(ctx, studentID, questID)
	if err != nil {
		return domain.QuestView{}, fmt.Errorf("next attempt number: %w", err)
	}
	view.AttemptNumber = next
	return view, nil
}

// Submit grades the answers, computes rewards against the student's best
// prior attempt, records the attempt, and applies any ledger delta.
//
// Sequencing: the record save comes first and a failure there is returned
// as a retryable error together with the computed summary. The ledger
// update comes second; its failure is downgraded to a warning because the
// saved attempt is the recorded truth.
func (s *AttemptService) Submit(ctx context.Context, studentID, questID string, answers domain.SubmittedAnswers) (AttemptSummary, error) {
	quest, err := s.quests.GetQuest(ctx, questID)
	if err != nil {
		return AttemptSummary{}, err
	}

	attemptNumber, err := s.attempts.NextAttemptNumber(ctx, studentID, questID)
	if err != nil {
		return AttemptSummary{}, fmt.Errorf("next attempt number: %w", err)
	}

	result := ScoreAttempt(quest, answers)

	priorBest, err := s.attempts.BestAttempt(ctx, studentID, questID)
	if err != nil {
		return AttemptSummary{}, fmt.Errorf("best attempt lookup: %w", err)
	}
	reward := ComputeReward(quest, result, priorBest)

	summary := AttemptSummary{
		AttemptNumber: attemptNumber,
		Score:         result.Score,
		MaxScore:      result.MaxScore,
		Percentage:    result.Percentage,
		CorrectCount:  result.CorrectCount,
		WrongCount:    result.WrongCount,
		Passed:        result.Passed,
		XPEarned:      reward.XPEarned,
		CoinsEarned:   reward.CoinsEarned,
		XPDelta:       reward.XPDelta,
		CoinsDelta:    reward.CoinsDelta,
	}

	record := domain.AttemptRecord{
		StudentID:     studentID,
		QuestID:       questID,
		AttemptNumber: attemptNumber,
		Score:         result.Score,
		MaxScore:      result.MaxScore,
		Percentage:    result.Percentage,
		Passed:        result.Passed,
		CorrectCount:  result.CorrectCount,
		WrongCount:    result.WrongCount,
		XPEarned:      reward.XPEarned,
		CoinsEarned:   reward.CoinsEarned,
		Answers:       answers,
		CompletedAt:   s.now(),
	}
	if err := s.attempts.Save(ctx, record); err != nil {
		return summary, fmt.Errorf("%w: %v", domain.ErrAttemptSaveFailed, err)
	}

	if reward.XPDelta != 0 || reward.CoinsDelta != 0 {
		if err := s.ledger.ApplyDelta(ctx, studentID, reward.XPDelta, reward.CoinsDelta); err != nil {
			log.Printf("ledger update lagging for student %s quest %s attempt %d: %v",
				studentID, questID, attemptNumber, err)
			summary.LedgerLagged = true
		}
	}
	return summary, nil
}

// Profile returns the student's cumulative balances.
func (s *AttemptService) Profile(ctx context.Context, studentID string) (domain.Profile, error) {
	return s.ledger.Profile(ctx, studentID)
}
