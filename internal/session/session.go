// Package session owns the state of one conversation: message history,
// the active model source and the transient flags the presentation layer
// renders. All mutation goes through Session methods; observers only see
// Snapshot copies.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neurolens/neurolens/internal/companion"
	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/neurolens/neurolens/internal/local"
	"github.com/rs/zerolog"
)

var (
	// ErrBusy is returned when a message is sent while a turn is running.
	ErrBusy = errors.New("session is busy")

	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("session closed")

	// ErrNoBackend is returned when a command needs a backend that was not configured.
	ErrNoBackend = errors.New("backend not configured")
)

const (
	statusInitializing = "Initializing..."
	statusReady        = "Ready: download or load a model"
	statusNoMode       = "Please load a model or activate mock mode first"
	statusMock         = "Mock mode active"
	statusMockFallback = "Mock mode active (model load failed)"
)

// Loader binds a local model reference using ordered strategies.
type Loader interface {
	Load(ctx context.Context, ref local.Ref) (string, error)
}

// Downloader fetches catalog models to disk.
type Downloader interface {
	Download(ctx context.Context, entry local.CatalogEntry, fn func(float64)) (string, error)
	Exists(entry local.CatalogEntry) bool
	Dir() string
}

// Recorder persists completed turns.
type Recorder interface {
	Create(ctx context.Context, e *domain.JournalEntry) error
}

// Deps are the collaborators a Session drives. Any of them may be nil;
// commands that need a missing one report ErrNoBackend.
type Deps struct {
	Remote     llm.Client
	Engine     local.Engine
	Loader     Loader
	Downloader Downloader
	Journal    Recorder
	Bank       *companion.Bank
	Log        zerolog.Logger
}

// Options tune turn behavior.
type Options struct {
	// Throttle is the minimum spacing of snapshot publication while
	// streaming. Zero publishes every token.
	Throttle        time.Duration
	MockDelay       time.Duration
	GenerateTimeout time.Duration
	ProbeTimeout    time.Duration
	SystemPrompt    string
	MaxTokens       int
	// HistoryTurns > 0 sends that many prior messages to the remote
	// server through the chat endpoint.
	HistoryTurns  int
	InitialSource domain.ModelSource
}

// DefaultSystemPrompt frames generated replies.
const DefaultSystemPrompt = "You are NeuroLens, a warm and concise wellness companion. " +
	"Acknowledge the user's feelings, then offer practical, gentle suggestions."

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		Throttle:        500 * time.Millisecond,
		MockDelay:       0,
		GenerateTimeout: 60 * time.Second,
		ProbeTimeout:    5 * time.Second,
		SystemPrompt:    DefaultSystemPrompt,
		MaxTokens:       512,
	}
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	SessionID string
	Messages  []domain.ChatMessage
	Source    domain.ModelSource
	// ModelID is the selected model, "" when none is selected.
	ModelID string
	Loading bool
	// DownloadProgress is nil when no download is running.
	DownloadProgress *float64
	Status           string
	RemoteConnected  bool
	RemoteURL        string
	RemoteModel      string
	LocalReady       bool
	Initialized      bool
	Models           []domain.ModelDescriptor
}

// MockMode reports whether the template engine answers messages.
func (s Snapshot) MockMode() bool { return s.Source == domain.SourceMock }

// Session is a single-writer conversation state container.
type Session struct {
	deps Deps
	opts Options
	log  zerolog.Logger
	bank *companion.Bank

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	id          string
	messages    []domain.ChatMessage
	source      domain.ModelSource
	modelID     string
	prevSource  domain.ModelSource
	prevModelID string
	loading     bool
	progress    *float64
	status      string
	remoteOK    bool
	localReady  bool
	initialized bool
	models      []domain.ModelDescriptor
	subs        map[int]chan Snapshot
	nextSub     int
	closed      bool
}

// New creates a Session.
func New(deps Deps, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	bank := deps.Bank
	if bank == nil {
		bank = companion.NewBank()
	}
	if deps.Loader == nil && deps.Engine != nil {
		deps.Loader = local.NewLoader(deps.Engine, local.MinModelBytes, deps.Log)
	}
	id := uuid.NewString()
	s := &Session{
		deps:   deps,
		opts:   opts,
		log:    deps.Log.With().Str("session_id", id).Logger(),
		bank:   bank,
		ctx:    ctx,
		cancel: cancel,
		id:     id,
		status: statusInitializing,
		subs:   map[int]chan Snapshot{},
	}
	switch opts.InitialSource {
	case domain.SourceMock:
		s.source = domain.SourceMock
		s.modelID = domain.MockModelID
		s.status = statusMock
	case domain.SourceRemote:
		if deps.Remote != nil {
			s.source = domain.SourceRemote
			s.modelID = deps.Remote.Model()
		}
	case domain.SourceLocal:
		if deps.Engine != nil {
			s.source = domain.SourceLocal
			s.modelID = deps.Engine.Loaded()
		}
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving the latest snapshot after every
// change. Slow readers skip intermediate snapshots. The channel is closed
// by the returned cancel func or by Close.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close stops in-flight work and closes all subscriptions.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.log.Debug().Msg("session closed")
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:       s.id,
		Messages:        append([]domain.ChatMessage(nil), s.messages...),
		Source:          s.source,
		ModelID:         s.modelID,
		Loading:         s.loading,
		Status:          s.status,
		RemoteConnected: s.remoteOK,
		LocalReady:      s.localReady,
		Initialized:     s.initialized,
		Models:          append([]domain.ModelDescriptor(nil), s.models...),
	}
	if s.progress != nil {
		p := *s.progress
		snap.DownloadProgress = &p
	}
	if s.deps.Remote != nil {
		snap.RemoteURL = s.deps.Remote.Endpoint()
		snap.RemoteModel = s.deps.Remote.Model()
	}
	return snap
}

// publishLocked delivers the current state to every subscriber, replacing
// any snapshot still waiting in a buffer.
func (s *Session) publishLocked() {
	if s.closed || len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// update applies fn under the lock and publishes the result.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.publishLocked()
}

func newMessage(text string, isUser bool) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		CreatedAt: time.Now(),
	}
}
