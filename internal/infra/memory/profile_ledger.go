package memory

import (
	"context"
	"sync"

	"lingo-quest-service/internal/domain"
)

// ProfileLedger is an in-memory implementation of app.ProfileLedger.
// Balances only ever change through additive deltas.
type ProfileLedger struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileLedger() *ProfileLedger {
	return &ProfileLedger{
		profiles: make(map[string]domain.Profile),
	}
}

func (l *ProfileLedger) ApplyDelta(_ context.Context, studentID string, xpDelta, coinsDelta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	profile := l.profiles[studentID]
	profile.StudentID = studentID
	profile.XP += int64(xpDelta)
	profile.Coins += int64(coinsDelta)
	l.profiles[studentID] = profile
	return nil
}

func (l *ProfileLedger) Profile(_ context.Context, studentID string) (domain.Profile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if profile, ok := l.profiles[studentID]; ok {
		return profile, nil
	}
	return domain.Profile{StudentID: studentID}, nil
}
