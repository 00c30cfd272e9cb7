package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/neurolens/neurolens/internal/domain"
)

// Journal entry options
type EntryOption func(*domain.JournalEntry)

func WithEmotion(e domain.Emotion) EntryOption {
	return func(j *domain.JournalEntry) {
		j.Emotion = e
	}
}

func WithCategory(c domain.Category) EntryOption {
	return func(j *domain.JournalEntry) {
		j.Category = c
	}
}

func WithSession(id string) EntryOption {
	return func(j *domain.JournalEntry) {
		j.SessionID = id
	}
}

func WithCreatedAt(t time.Time) EntryOption {
	return func(j *domain.JournalEntry) {
		j.CreatedAt = t
	}
}

func NewTestEntry(message string, opts ...EntryOption) *domain.JournalEntry {
	e := &domain.JournalEntry{
		ID:        uuid.New().String(),
		SessionID: "test-session",
		Emotion:   domain.EmotionNeutral,
		Category:  domain.CategoryGeneralChat,
		Advice:    []string{"Breathe", "Rest", "Reflect"},
		Message:   message,
		Source:    domain.SourceMock,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}
