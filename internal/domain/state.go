package domain

import "time"

// ConversationState is the per-turn result of the template engine.
// It is immutable: fields are unexported and Advice returns a copy.
type ConversationState struct {
	emotion          Emotion
	advice           []string
	lastMessage      string
	detailedResponse string
	modelLoaded      bool
	mockMode         bool
	timestamp        time.Time
}

// StateOptions carries the values for NewConversationState.
type StateOptions struct {
	Emotion          Emotion
	Advice           []string
	LastMessage      string
	DetailedResponse string
	ModelLoaded      bool
	MockMode         bool
	Timestamp        time.Time
}

// NewConversationState builds a state, copying the advice slice.
func NewConversationState(opts StateOptions) ConversationState {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	advice := make([]string, len(opts.Advice))
	copy(advice, opts.Advice)
	return ConversationState{
		emotion:          opts.Emotion,
		advice:           advice,
		lastMessage:      opts.LastMessage,
		detailedResponse: opts.DetailedResponse,
		modelLoaded:      opts.ModelLoaded,
		mockMode:         opts.MockMode,
		timestamp:        ts,
	}
}

func (s ConversationState) Emotion() Emotion { return s.emotion }

// EmotionTag is the capitalized label attached to chat messages.
func (s ConversationState) EmotionTag() string { return s.emotion.Display() }

func (s ConversationState) Advice() []string {
	out := make([]string, len(s.advice))
	copy(out, s.advice)
	return out
}

func (s ConversationState) LastMessage() string      { return s.lastMessage }
func (s ConversationState) DetailedResponse() string { return s.detailedResponse }
func (s ConversationState) HasDetailedResponse() bool {
	return s.detailedResponse != ""
}
func (s ConversationState) ModelLoaded() bool    { return s.modelLoaded }
func (s ConversationState) MockMode() bool       { return s.mockMode }
func (s ConversationState) Timestamp() time.Time { return s.timestamp }
