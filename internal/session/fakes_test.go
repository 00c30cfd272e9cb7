package session

import (
	"context"
	"sync"
	"testing"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/neurolens/neurolens/internal/local"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRemote struct {
	mu        sync.Mutex
	endpoint  string
	model     string
	available bool
	tokens    []string
	err       error
	models    []llm.Model
	block     chan struct{} // when set, streams wait for it or ctx
	afterTok  func()
	chatReqs  []llm.ChatRequest
	genReqs   []llm.GenerateRequest
	pulled    []string
}

var _ llm.Client = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{endpoint: "http://localhost:11434", model: "llama2", available: true}
}

func (f *fakeRemote) Generate(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return &llm.GenerateResponse{Text: "1. Begin"}, nil
}

func (f *fakeRemote) stream(ctx context.Context, fn llm.TokenFunc) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, tok := range f.tokens {
		if err := fn(tok); err != nil {
			return err
		}
		if f.afterTok != nil {
			f.afterTok()
		}
	}
	return f.err
}

func (f *fakeRemote) GenerateStream(ctx context.Context, req llm.GenerateRequest, fn llm.TokenFunc) error {
	f.mu.Lock()
	f.genReqs = append(f.genReqs, req)
	f.mu.Unlock()
	return f.stream(ctx, fn)
}

func (f *fakeRemote) ChatStream(ctx context.Context, req llm.ChatRequest, fn llm.TokenFunc) error {
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, req)
	f.mu.Unlock()
	return f.stream(ctx, fn)
}

func (f *fakeRemote) Pull(_ context.Context, name string, fn llm.ProgressFunc) error {
	f.pulled = append(f.pulled, name)
	fn(domain.PullProgress{Model: name, Progress: 0.5})
	fn(domain.PullProgress{Model: name, Progress: 1, Complete: true})
	return f.err
}

func (f *fakeRemote) ListModels(context.Context) ([]llm.Model, error) { return f.models, f.err }

func (f *fakeRemote) Available(context.Context) bool { return f.available }

func (f *fakeRemote) Configure(endpoint, model string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if endpoint != "" {
		f.endpoint = endpoint
	}
	if model != "" {
		f.model = model
	}
}

func (f *fakeRemote) Endpoint() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.endpoint
}

func (f *fakeRemote) Model() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model
}

type fakeEngine struct {
	listErr error
	loaded  string
	tokens  []string
}

func (f *fakeEngine) ListModels(context.Context) ([]string, error) { return []string{"m"}, f.listErr }
func (f *fakeEngine) LoadModel(_ context.Context, ref string) error {
	f.loaded = ref
	return nil
}
func (f *fakeEngine) Loaded() string { return f.loaded }
func (f *fakeEngine) GenerateStream(_ context.Context, _ local.GenerateRequest, fn func(string) error) error {
	if f.loaded == "" {
		return local.ErrNotLoaded
	}
	for _, t := range f.tokens {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

type fakeLoader struct {
	strategy string
	err      error
	refs     []local.Ref
}

func (f *fakeLoader) Load(_ context.Context, ref local.Ref) (string, error) {
	f.refs = append(f.refs, ref)
	return f.strategy, f.err
}

type fakeDownloader struct {
	during   func()
	err      error
	fetched  []string
	existing map[string]bool
}

func (f *fakeDownloader) Download(_ context.Context, e local.CatalogEntry, fn func(float64)) (string, error) {
	f.fetched = append(f.fetched, e.ID)
	fn(0.5)
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return "", f.err
	}
	fn(1)
	return "/models/" + e.FileName, nil
}

func (f *fakeDownloader) Exists(e local.CatalogEntry) bool { return f.existing[e.ID] }
func (f *fakeDownloader) Dir() string                      { return "/models" }

type fakeRecorder struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
	err     error
}

func (f *fakeRecorder) Create(_ context.Context, e *domain.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return f.err
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Throttle = 0
	return opts
}

func newTestSession(t *testing.T, deps Deps, opts Options) *Session {
	t.Helper()
	deps.Log = zerolog.Nop()
	s := New(deps, opts)
	t.Cleanup(s.Close)
	return s
}
