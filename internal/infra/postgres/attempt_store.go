package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lingo-quest-service/internal/domain"
	"github.com/uptrace/bun"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:quest_attempts,alias:qa"`

	StudentID     string            `bun:"student_id,pk"`
	QuestID       string            `bun:"quest_id,pk"`
	AttemptNumber int               `bun:"attempt_number,pk"`
	Score         float64           `bun:"score,notnull"`
	MaxScore      float64           `bun:"max_score,notnull"`
	Percentage    float64           `bun:"percentage,notnull"`
	Passed        bool              `bun:"passed,notnull"`
	CorrectCount  int               `bun:"correct_count,notnull"`
	WrongCount    int               `bun:"wrong_count,notnull"`
	XPEarned      int               `bun:"xp_earned,notnull"`
	CoinsEarned   int               `bun:"coins_earned,notnull"`
	Answers       map[string]string `bun:"answers,type:jsonb"`
	CompletedAt   time.Time         `bun:"completed_at,notnull"`
}

func (r attemptRow) toDomain() domain.AttemptRecord {
	return domain.AttemptRecord{
		StudentID:     r.StudentID,
		QuestID:       r.QuestID,
		AttemptNumber: r.AttemptNumber,
		Score:         r.Score,
		MaxScore:      r.MaxScore,
		Percentage:    r.Percentage,
		Passed:        r.Passed,
		CorrectCount:  r.CorrectCount,
		WrongCount:    r.WrongCount,
		XPEarned:      r.XPEarned,
		CoinsEarned:   r.CoinsEarned,
		Answers:       r.Answers,
		CompletedAt:   r.CompletedAt,
	}
}

// AttemptStore persists graded attempts in Postgres via bun, one row per
// (student, quest, attempt number).
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) NextAttemptNumber(ctx context.Context, studentID, questID string) (int, error) {
	var max int
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		ColumnExpr("COALESCE(MAX(attempt_number), 0)").
		Where("student_id = ?", studentID).
		Where("quest_id = ?", questID).
		Scan(ctx, &max)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (s *AttemptStore) BestAttempt(ctx context.Context, studentID, questID string) (*domain.AttemptRecord, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().
		Model(row).
		Where("student_id = ?", studentID).
		Where("quest_id = ?", questID).
		OrderExpr("score DESC, completed_at ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := row.toDomain()
	return &record, nil
}

// Save upserts on the (student_id, quest_id, attempt_number) key so a retry
// of the same attempt number overwrites instead of duplicating.
func (s *AttemptStore) Save(ctx context.Context, record domain.AttemptRecord) error {
	row := &attemptRow{
		StudentID:     record.StudentID,
		QuestID:       record.QuestID,
		AttemptNumber: record.AttemptNumber,
		Score:         record.Score,
		MaxScore:      record.MaxScore,
		Percentage:    record.Percentage,
		Passed:        record.Passed,
		CorrectCount:  record.CorrectCount,
		WrongCount:    record.WrongCount,
		XPEarned:      record.XPEarned,
		CoinsEarned:   record.CoinsEarned,
		Answers:       record.Answers,
		CompletedAt:   record.CompletedAt,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (student_id, quest_id, attempt_number) DO UPDATE").
		Set("score = EXCLUDED.score").
		Set("max_score = EXCLUDED.max_score").
		Set("percentage = EXCLUDED.percentage").
		Set("passed = EXCLUDED.passed").
		Set("correct_count = EXCLUDED.correct_count").
		Set("wrong_count = EXCLUDED.wrong_count").
		Set("xp_earned = EXCLUDED.xp_earned").
		Set("coins_earned = EXCLUDED.coins_earned").
		Set("answers = EXCLUDED.answers").
		Set("completed_at = EXCLUDED.completed_at").
		Exec(ctx)
	return err
}

func (s *AttemptStore) MaxAttemptsReached(ctx context.Context, studentID, questID string, maxAttempts int) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		Where("student_id = ?", studentID).
		Where("quest_id = ?", questID).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count >= maxAttempts, nil
}

// Attempts lists all records for the pair in attempt order, for review.
func (s *AttemptStore) Attempts(ctx context.Context, studentID, questID string) ([]domain.AttemptRecord, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("student_id = ?", studentID).
		Where("quest_id = ?", questID).
		OrderExpr("attempt_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]domain.AttemptRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}
