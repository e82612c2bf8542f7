package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"lingo-quest-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestLoader fetches quest content from a backing store (e.g., Postgres).
type QuestLoader interface {
	LoadQuest(ctx context.Context, questID string) (domain.Quest, error)
}

// QuestRepository caches normalized quests in Redis and falls back to a
// loader on cache miss. The full canonical quest is stored as JSON under
// quest:{questID} so attempt sessions can be served entirely from cache.
type QuestRepository struct {
	client *redis.Client
	loader QuestLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestRepository(client *redis.Client, loader QuestLoader, ttl time.Duration) *QuestRepository {
	return &QuestRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestRepository) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	key := r.key(questID)

	if quest, ok := r.fromCache(ctx, key); ok {
		return quest, nil
	}

	result, err, _ := r.sf.Do(questID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quest, ok := r.fromCache(ctx, key); ok {
			return quest, nil
		}

		quest, err := r.loader.LoadQuest(ctx, questID)
		if err != nil {
			return domain.Quest{}, err
		}

		if data, err := json.Marshal(quest); err == nil {
			// best-effort: a failed cache write only costs the next caller a reload
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return quest, nil
	})
	if err != nil {
		return domain.Quest{}, err
	}
	return result.(domain.Quest), nil
}

func (r *QuestRepository) fromCache(ctx context.Context, key string) (domain.Quest, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil || len(data) == 0 {
		return domain.Quest{}, false
	}
	var quest domain.Quest
	if err := json.Unmarshal(data, &quest); err != nil {
		return domain.Quest{}, false
	}
	return quest, true
}

func (r *QuestRepository) key(questID string) string {
	return "quest:" + questID
}

func (r *QuestRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
