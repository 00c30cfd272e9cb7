package llm

import "errors"

var (
	// ErrOllamaUnavailable indicates the Ollama server is unreachable.
	ErrOllamaUnavailable = errors.New("ollama server unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")

	// ErrNoModel indicates no model name was configured or requested.
	ErrNoModel = errors.New("no model selected")

	// ErrServer wraps an error object reported inside a streamed response.
	ErrServer = errors.New("ollama reported an error")
)
