package domain

import "time"

// JournalEntry is one recorded conversation turn.
type JournalEntry struct {
	ID        string
	SessionID string
	Emotion   Emotion
	Category  Category
	Advice    []string
	Message   string
	Source    ModelSource
	CreatedAt time.Time
}

// EmotionCount is the number of journal entries carrying one emotion.
type EmotionCount struct {
	Emotion Emotion
	Count   int
}
