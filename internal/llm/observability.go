package llm

import (
	"github.com/rs/zerolog"
)

// LLMCallEvent records metadata about a single server call.
type LLMCallEvent struct {
	Task      TaskType
	Op        string // generate, generate_stream, chat_stream, pull, tags
	Model     string
	LatencyMs int64
	Tokens    int
	Success   bool
	ErrorCode string
}

// Observer receives events about calls for logging and metrics.
type Observer interface {
	OnCallComplete(event LLMCallEvent)
}

// LogObserver writes call events to a zerolog logger.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates an Observer that logs events through log.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log.With().Str("component", "llm").Logger()}
}

func (o *LogObserver) OnCallComplete(event LLMCallEvent) {
	ev := o.log.Info()
	if !event.Success {
		ev = o.log.Warn().Str("error_code", event.ErrorCode)
	}
	ev.Str("task", string(event.Task)).
		Str("op", event.Op).
		Str("model", event.Model).
		Int64("latency_ms", event.LatencyMs).
		Int("tokens", event.Tokens).
		Msg("llm_call")
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(LLMCallEvent) {}
