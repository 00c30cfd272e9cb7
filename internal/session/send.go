package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neurolens/neurolens/internal/companion"
	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/neurolens/neurolens/internal/local"
)

// SendMessage runs one conversation turn. Generation failures become an
// error message in the history; the returned error only reports that the
// turn could not start (ErrBusy, ErrClosed) or was canceled before it did.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if !s.activeLocked() {
		s.status = statusNoMode
		s.publishLocked()
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	source := s.source
	userIdx := len(s.messages)
	s.messages = append(s.messages, newMessage(text, true))
	s.publishLocked()
	s.mu.Unlock()

	defer s.update(func() { s.loading = false })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	log := s.log.With().Str("source", string(source)).Logger()
	start := time.Now()

	var (
		category domain.Category
		state    domain.ConversationState
		err      error
	)
	switch source {
	case domain.SourceMock:
		category, state, err = s.mockTurn(ctx, text, userIdx)
	default:
		category, state, err = s.streamTurn(ctx, source, text)
	}
	if err != nil {
		log.Warn().Err(err).Int64("latency_ms", time.Since(start).Milliseconds()).Msg("turn failed")
		return nil
	}
	log.Info().
		Str("category", string(category)).
		Str("emotion", string(state.Emotion())).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("turn complete")
	s.record(ctx, source, category, state)
	return nil
}

// activeLocked reports whether a message can be answered: mock mode is
// on, or a source is selected with a model bound to it.
func (s *Session) activeLocked() bool {
	switch s.source {
	case domain.SourceMock:
		return true
	case domain.SourceNone:
		return false
	}
	return s.modelID != ""
}

func (s *Session) mockTurn(ctx context.Context, text string, userIdx int) (domain.Category, domain.ConversationState, error) {
	if s.opts.MockDelay > 0 {
		t := time.NewTimer(s.opts.MockDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			s.appendError(ctx.Err())
			return "", domain.ConversationState{}, ctx.Err()
		case <-t.C:
		}
	}

	category := companion.Route(text)
	state := s.bank.Respond(category, text)
	tag := state.EmotionTag()

	s.update(func() {
		if userIdx < len(s.messages) {
			s.messages[userIdx].Tag = tag
		}
		reply := newMessage(companion.ReplyText(state), false)
		reply.Tag = tag
		s.messages = append(s.messages, reply)
	})
	return category, state, nil
}

// streamTurn consumes tokens from the active backend into a single AI
// message, publishing at most once per throttle interval. The final text
// is always flushed, even when the stream fails part way.
func (s *Session) streamTurn(ctx context.Context, source domain.ModelSource, text string) (domain.Category, domain.ConversationState, error) {
	if s.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GenerateTimeout)
		defer cancel()
	}

	var (
		acc       strings.Builder
		idx       = -1
		lastFlush time.Time
	)
	flush := func() {
		s.update(func() {
			if idx < 0 {
				idx = len(s.messages)
				s.messages = append(s.messages, newMessage(acc.String(), false))
				return
			}
			s.messages[idx].Text = acc.String()
		})
		lastFlush = time.Now()
	}
	onToken := func(tok string) error {
		acc.WriteString(tok)
		if time.Since(lastFlush) >= s.opts.Throttle {
			flush()
		}
		return nil
	}

	var err error
	switch source {
	case domain.SourceRemote:
		err = s.generateRemote(ctx, text, onToken)
	case domain.SourceLocal:
		err = s.generateLocal(ctx, text, onToken)
	default:
		err = fmt.Errorf("unknown source %q", source)
	}

	if err != nil {
		if acc.Len() > 0 {
			flush()
		}
		s.appendError(err)
		return "", domain.ConversationState{}, err
	}
	flush()

	reply := acc.String()
	state := domain.NewConversationState(domain.StateOptions{
		Emotion:          companion.Classify(text),
		LastMessage:      text,
		DetailedResponse: reply,
		ModelLoaded:      true,
	})
	return companion.Route(text), state, nil
}

func (s *Session) generateRemote(ctx context.Context, text string, fn llm.TokenFunc) error {
	if s.deps.Remote == nil {
		return ErrNoBackend
	}
	if s.opts.HistoryTurns > 0 {
		return s.deps.Remote.ChatStream(ctx, llm.ChatRequest{
			System:   s.opts.SystemPrompt,
			Messages: s.history(s.opts.HistoryTurns),
		}, fn)
	}
	return s.deps.Remote.GenerateStream(ctx, llm.GenerateRequest{
		Task:         llm.TaskChat,
		SystemPrompt: s.opts.SystemPrompt,
		UserPrompt:   text,
	}, fn)
}

func (s *Session) generateLocal(ctx context.Context, text string, fn func(string) error) error {
	if s.deps.Engine == nil {
		return ErrNoBackend
	}
	return s.deps.Engine.GenerateStream(ctx, local.GenerateRequest{
		System:    s.opts.SystemPrompt,
		Prompt:    text,
		MaxTokens: s.opts.MaxTokens,
	}, fn)
}

// history returns up to n of the latest non-error messages, oldest first.
// The current user message is always last.
func (s *Session) history(n int) []llm.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	var turns []llm.ChatTurn
	for i := len(s.messages) - 1; i >= 0 && len(turns) < n; i-- {
		m := s.messages[i]
		if m.Error {
			continue
		}
		turns = append(turns, llm.ChatTurn{Text: m.Text, IsUser: m.IsUser})
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}

func (s *Session) appendError(err error) {
	s.update(func() {
		m := newMessage("Error: "+errorReason(err), false)
		m.Error = true
		s.messages = append(s.messages, m)
	})
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, llm.ErrTimeout):
		return "generation timed out"
	case errors.Is(err, context.Canceled):
		return "generation canceled"
	case errors.Is(err, local.ErrNotLoaded):
		return "no local model loaded"
	case errors.Is(err, ErrNoBackend):
		return "backend not configured"
	default:
		return err.Error()
	}
}

func (s *Session) record(ctx context.Context, source domain.ModelSource, category domain.Category, state domain.ConversationState) {
	if s.deps.Journal == nil {
		return
	}
	entry := &domain.JournalEntry{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Emotion:   state.Emotion(),
		Category:  category,
		Advice:    state.Advice(),
		Message:   state.LastMessage(),
		Source:    source,
		CreatedAt: state.Timestamp(),
	}
	// The turn is already complete; a canceled turn context must not drop it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.deps.Journal.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("recording journal entry")
	}
}
