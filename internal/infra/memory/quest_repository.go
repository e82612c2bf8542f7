package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"lingo-quest-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestLoader fetches quest content from a backing store (e.g., Postgres).
type QuestLoader interface {
	LoadQuest(ctx context.Context, questID string) (domain.Quest, error)
}

// QuestRepository caches quests with TTL to avoid repeated DB hits.
type QuestRepository struct {
	loader QuestLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuest
}

type cachedQuest struct {
	quest     domain.Quest
	expiresAt time.Time
}

func NewQuestRepository(loader QuestLoader, ttl time.Duration) *QuestRepository {
	return &QuestRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuest),
	}
}

func (r *QuestRepository) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[questID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.quest, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(questID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[questID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.quest, nil
		}
		r.mu.RUnlock()

		quest, err := r.loader.LoadQuest(ctx, questID)
		if err != nil {
			return domain.Quest{}, err
		}

		r.mu.Lock()
		r.cache[questID] = cachedQuest{
			quest:     quest,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quest, nil
	})
	if err != nil {
		return domain.Quest{}, err
	}
	return result.(domain.Quest), nil
}

// StaticQuestLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuestLoader struct {
	quests map[string]domain.Quest
}

func NewStaticQuestLoader(quests map[string]domain.Quest) *StaticQuestLoader {
	return &StaticQuestLoader{quests: quests}
}

func (l *StaticQuestLoader) LoadQuest(_ context.Context, questID string) (domain.Quest, error) {
	if quest, ok := l.quests[questID]; ok {
		return quest, nil
	}
	return domain.Quest{}, domain.ErrQuestNotFound
}

func (r *QuestRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
