// Package local drives an on-device model through a local inference
// server: model catalog, file downloads, ordered load strategies and
// token streaming.
package local

import "context"

// GenerateRequest is one prompt sent to the local engine.
type GenerateRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Engine is the capability set the session needs from a local backend.
type Engine interface {
	// ListModels returns the ids of models the server can serve.
	ListModels(ctx context.Context) ([]string, error)

	// LoadModel binds the engine to the served model matching ref.
	LoadModel(ctx context.Context, ref string) error

	// GenerateStream streams tokens for req to fn in order.
	GenerateStream(ctx context.Context, req GenerateRequest, fn func(token string) error) error

	// Loaded returns the bound model id, or "" when none is bound.
	Loaded() string
}
