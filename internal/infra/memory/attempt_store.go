package memory

import (
	"context"
	"sync"

	"lingo-quest-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string][]domain.AttemptRecord
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string][]domain.AttemptRecord),
	}
}

func (s *AttemptStore) NextAttemptNumber(_ context.Context, studentID, questID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, record := range s.attempts[s.key(studentID, questID)] {
		if record.AttemptNumber > max {
			max = record.AttemptNumber
		}
	}
	return max + 1, nil
}

func (s *AttemptStore) BestAttempt(_ context.Context, studentID, questID string) (*domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.AttemptRecord
	for _, record := range s.attempts[s.key(studentID, questID)] {
		record := record
		if best == nil ||
			record.Score > best.Score ||
			(record.Score == best.Score && record.CompletedAt.Before(best.CompletedAt)) {
			best = &record
		}
	}
	return best, nil
}

// Save upserts by attempt number: a retry of the same number overwrites.
func (s *AttemptStore) Save(_ context.Context, record domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(record.StudentID, record.QuestID)
	for i, existing := range s.attempts[key] {
		if existing.AttemptNumber == record.AttemptNumber {
			s.attempts[key][i] = record
			return nil
		}
	}
	s.attempts[key] = append(s.attempts[key], record)
	return nil
}

func (s *AttemptStore) MaxAttemptsReached(_ context.Context, studentID, questID string, maxAttempts int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts[s.key(studentID, questID)]) >= maxAttempts, nil
}

// Attempts returns all records for the pair, for tests and review screens.
func (s *AttemptStore) Attempts(_ context.Context, studentID, questID string) ([]domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.attempts[s.key(studentID, questID)]
	out := make([]domain.AttemptRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *AttemptStore) key(studentID, questID string) string {
	return studentID + "|" + questID
}
