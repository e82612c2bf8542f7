package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lingo-quest-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestLoader loads authored quest JSONB from Postgres and normalizes it to
// the canonical shape, once, at load time.
type QuestLoader struct {
	pool *pgxpool.Pool
}

func NewQuestLoader(pool *pgxpool.Pool) *QuestLoader {
	return &QuestLoader{pool: pool}
}

func (l *QuestLoader) LoadQuest(ctx context.Context, questID string) (domain.Quest, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quests WHERE id=$1`, questID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	if err != nil {
		return domain.Quest{}, fmt.Errorf("load quest: %w", err)
	}
	var authored domain.RawQuest
	if err := json.Unmarshal(raw, &authored); err != nil {
		return domain.Quest{}, fmt.Errorf("unmarshal quest: %w", err)
	}
	if authored.ID == "" {
		authored.ID = questID
	}
	return authored.Normalize(), nil
}
