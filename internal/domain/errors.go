package domain

import "errors"

var (
	// ErrQuestNotFound indicates the quest content could not be loaded.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrMaxAttemptsReached blocks a new attempt session before any
	// questions are shown.
	ErrMaxAttemptsReached = errors.New("maximum attempts reached for this quest")
	// ErrAttemptSaveFailed wraps a persistence failure on the attempt
	// record; the computed result is still returned alongside it so the
	// caller can retry without discarding the score.
	ErrAttemptSaveFailed = errors.New("attempt could not be saved")
)
