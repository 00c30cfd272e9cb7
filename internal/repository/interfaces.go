package repository

import (
	"context"
	"time"

	"github.com/neurolens/neurolens/internal/domain"
)

// JournalRepo stores recorded conversation turns.
type JournalRepo interface {
	Create(ctx context.Context, e *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.JournalEntry, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.JournalEntry, error)
	// CountByEmotion counts entries created since now minus days, most
	// frequent first.
	CountByEmotion(ctx context.Context, days int, now time.Time) ([]domain.EmotionCount, error)
	Delete(ctx context.Context, id string) error
}
