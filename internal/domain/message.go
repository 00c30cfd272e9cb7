package domain

import "time"

// ChatMessage is one entry of the session history.
type ChatMessage struct {
	ID        string
	Text      string
	IsUser    bool
	Tag       string // emotion label used for coloring, may be empty
	Error     bool
	CreatedAt time.Time
}

// ModelDescriptor describes a model a backend can serve.
type ModelDescriptor struct {
	ID         string
	Name       string
	Source     ModelSource
	SizeBytes  int64
	Downloaded bool
	ModifiedAt string
}

// PullProgress reports model download progress.
type PullProgress struct {
	Model    string
	Progress float64 // 0..1
	Status   string
	Complete bool
}
