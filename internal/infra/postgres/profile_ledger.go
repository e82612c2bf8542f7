package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lingo-quest-service/internal/domain"
	"github.com/uptrace/bun"
)

type profileRow struct {
	bun.BaseModel `bun:"table:student_profiles,alias:sp"`

	StudentID string    `bun:"student_id,pk"`
	XP        int64     `bun:"xp,notnull"`
	Coins     int64     `bun:"coins,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// ProfileLedger keeps cumulative balances in Postgres. Deltas are applied
// with an upsert-increment so the row is read-modify-written by the
// database, never overwritten with absolute values.
type ProfileLedger struct {
	db *bun.DB
}

func NewProfileLedger(db *bun.DB) *ProfileLedger {
	return &ProfileLedger{db: db}
}

func (l *ProfileLedger) ApplyDelta(ctx context.Context, studentID string, xpDelta, coinsDelta int) error {
	row := &profileRow{
		StudentID: studentID,
		XP:        int64(xpDelta),
		Coins:     int64(coinsDelta),
		UpdatedAt: time.Now(),
	}
	_, err := l.db.NewInsert().
		Model(row).
		On("CONFLICT (student_id) DO UPDATE").
		Set("xp = sp.xp + EXCLUDED.xp").
		Set("coins = sp.coins + EXCLUDED.coins").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (l *ProfileLedger) Profile(ctx context.Context, studentID string) (domain.Profile, error) {
	row := new(profileRow)
	err := l.db.NewSelect().
		Model(row).
		Where("student_id = ?", studentID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{StudentID: studentID}, nil
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{StudentID: row.StudentID, XP: row.XP, Coins: row.Coins}, nil
}
