package redis

import (
	"context"
	"strconv"

	"lingo-quest-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProfileLedger keeps cumulative XP/coins in a Redis hash per student:
// HINCRBY profile:{studentID} xp/coins. Increments are atomic, matching the
// additive-delta-only contract.
type ProfileLedger struct {
	client *redis.Client
}

func NewProfileLedger(client *redis.Client) *ProfileLedger {
	return &ProfileLedger{client: client}
}

func (l *ProfileLedger) ApplyDelta(ctx context.Context, studentID string, xpDelta, coinsDelta int) error {
	pipe := l.client.TxPipeline()
	if xpDelta != 0 {
		pipe.HIncrBy(ctx, l.key(studentID), "xp", int64(xpDelta))
	}
	if coinsDelta != 0 {
		pipe.HIncrBy(ctx, l.key(studentID), "coins", int64(coinsDelta))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (l *ProfileLedger) Profile(ctx context.Context, studentID string) (domain.Profile, error) {
	fields, err := l.client.HGetAll(ctx, l.key(studentID)).Result()
	if err != nil {
		return domain.Profile{}, err
	}
	profile := domain.Profile{StudentID: studentID}
	if raw, ok := fields["xp"]; ok {
		if xp, err := strconv.ParseInt(raw, 10, 64); err == nil {
			profile.XP = xp
		}
	}
	if raw, ok := fields["coins"]; ok {
		if coins, err := strconv.ParseInt(raw, 10, 64); err == nil {
			profile.Coins = coins
		}
	}
	return profile, nil
}

func (l *ProfileLedger) key(studentID string) string {
	return "profile:" + studentID
}
