package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lingo-quest-service/internal/domain"
)

func TestQuestRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestLoader: NewStaticQuestLoader(map[string]domain.Quest{
			"quest-1": sampleQuest(),
		}),
	}
	repo := NewQuestRepository(loader, time.Minute)

	if _, err := repo.GetQuest(context.Background(), "quest-1"); err != nil {
		t.Fatalf("get quest: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = repo.GetQuest(context.Background(), "quest-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestQuestRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewQuestRepository(NewStaticQuestLoader(nil), time.Minute)
	_, err := repo.GetQuest(context.Background(), "quest-unknown")
	if !errors.Is(err, domain.ErrQuestNotFound) {
		t.Fatalf("expected quest not found, got %v", err)
	}
}

type countingLoader struct {
	QuestLoader
	calls int
}

func (l *countingLoader) LoadQuest(ctx context.Context, questID string) (domain.Quest, error) {
	l.calls++
	return l.QuestLoader.LoadQuest(ctx, questID)
}

func sampleQuest() domain.Quest {
	return domain.Quest{
		ID:                    "quest-1",
		MinScoreToPassPercent: 70,
		XPRewardPerCorrect:    5,
		Questions: []domain.QuestQuestion{
			{
				ID:    "qq1",
				Order: 1,
				Question: domain.Question{
					ID:              "q1",
					Type:            domain.QuestionMultipleChoice,
					Prompt:          "What is 2 + 2?",
					OptionsByLetter: map[string]string{"A": "3", "B": "4"},
					CorrectLetter:   "B",
					Points:          10,
				},
			},
		},
	}
}
