package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/local"
	"golang.org/x/sync/errgroup"
)

// Init probes the local engine and the remote server concurrently. Each
// probe publishes its result on its own; failures only clear the flag.
func (s *Session) Init(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if s.deps.Engine != nil {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, s.probeTimeout())
			defer cancel()
			_, err := s.deps.Engine.ListModels(pctx)
			if err != nil {
				s.log.Debug().Err(err).Msg("local engine probe failed")
			}
			s.update(func() { s.localReady = err == nil })
			return nil
		})
	}
	if s.deps.Remote != nil {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, s.probeTimeout())
			defer cancel()
			ok := s.deps.Remote.Available(pctx)
			s.update(func() { s.remoteOK = ok })
			return nil
		})
	}
	err := g.Wait()

	s.update(func() {
		s.initialized = true
		if s.status == statusInitializing {
			s.status = s.readyStatusLocked()
		}
	})
	return err
}

func (s *Session) readyStatusLocked() string {
	switch s.source {
	case domain.SourceMock:
		return statusMock
	case domain.SourceRemote:
		if s.remoteOK {
			return "Connected to " + s.deps.Remote.Endpoint()
		}
		return "Remote server unreachable at " + s.deps.Remote.Endpoint()
	case domain.SourceLocal:
		if s.modelID != "" {
			return "Local model " + s.modelID + " active"
		}
		return "Select a local model to load"
	}
	return statusReady
}

func (s *Session) probeTimeout() time.Duration {
	if s.opts.ProbeTimeout > 0 {
		return s.opts.ProbeTimeout
	}
	return DefaultOptions().ProbeTimeout
}

// ActivateMockMode switches to the template engine.
func (s *Session) ActivateMockMode() {
	s.update(s.activateMockLocked)
}

func (s *Session) activateMockLocked() {
	if s.source != domain.SourceMock {
		s.prevSource, s.prevModelID = s.source, s.modelID
	}
	s.source = domain.SourceMock
	s.modelID = domain.MockModelID
	s.status = statusMock
}

// ToggleMockMode turns mock mode off, restoring the previous source, or
// turns it on.
func (s *Session) ToggleMockMode() bool {
	var on bool
	s.update(func() {
		if s.source == domain.SourceMock {
			s.source, s.modelID = s.prevSource, s.prevModelID
			s.prevSource, s.prevModelID = domain.SourceNone, ""
			s.status = s.readyStatusLocked()
			return
		}
		s.activateMockLocked()
		on = true
	})
	return on
}

// SelectSource makes src the backend for subsequent messages.
func (s *Session) SelectSource(src domain.ModelSource) error {
	switch src {
	case domain.SourceMock:
		s.ActivateMockMode()
		return nil
	case domain.SourceRemote:
		if s.deps.Remote == nil {
			return fmt.Errorf("%w: remote server", ErrNoBackend)
		}
	case domain.SourceLocal:
		if s.deps.Engine == nil {
			return fmt.Errorf("%w: local engine", ErrNoBackend)
		}
	case domain.SourceNone:
	default:
		return fmt.Errorf("unknown source %q", src)
	}
	s.update(func() {
		s.source = src
		switch src {
		case domain.SourceRemote:
			s.modelID = s.deps.Remote.Model()
		case domain.SourceLocal:
			s.modelID = s.deps.Engine.Loaded()
		default:
			s.modelID = ""
		}
		s.status = s.readyStatusLocked()
	})
	return nil
}

// ConfigureRemote points the remote backend at url and model. Empty
// values keep the current setting.
func (s *Session) ConfigureRemote(url, model string) error {
	if s.deps.Remote == nil {
		return fmt.Errorf("%w: remote server", ErrNoBackend)
	}
	s.deps.Remote.Configure(url, model)
	s.update(func() {
		s.remoteOK = false
		if s.source == domain.SourceRemote {
			s.modelID = s.deps.Remote.Model()
		}
		s.status = fmt.Sprintf("Remote server set to %s (%s)", s.deps.Remote.Endpoint(), s.deps.Remote.Model())
	})
	return nil
}

// TestConnection probes the remote server and publishes the result.
func (s *Session) TestConnection(ctx context.Context) bool {
	if s.deps.Remote == nil {
		s.update(func() { s.status = "No remote server configured" })
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout())
	defer cancel()
	ok := s.deps.Remote.Available(ctx)
	endpoint := s.deps.Remote.Endpoint()
	s.update(func() {
		s.remoteOK = ok
		if ok {
			s.status = "Connected to " + endpoint
		} else {
			s.status = "Cannot reach " + endpoint
		}
	})
	return ok
}

// RefreshModels rebuilds the model list from the catalog and the remote
// server. A remote failure keeps the catalog entries.
func (s *Session) RefreshModels(ctx context.Context) error {
	var models []domain.ModelDescriptor
	for _, e := range local.Catalog() {
		d := domain.ModelDescriptor{
			ID:        e.ID,
			Name:      e.Name,
			Source:    domain.SourceLocal,
			SizeBytes: e.SizeBytes,
		}
		if s.deps.Downloader != nil {
			d.Downloaded = s.deps.Downloader.Exists(e)
		}
		models = append(models, d)
	}

	var remoteErr error
	if s.deps.Remote != nil {
		ctx, cancel := context.WithTimeout(ctx, s.probeTimeout())
		defer cancel()
		remote, err := s.deps.Remote.ListModels(ctx)
		if err != nil {
			remoteErr = err
			s.log.Warn().Err(err).Msg("listing remote models")
		}
		for _, m := range remote {
			models = append(models, domain.ModelDescriptor{
				ID:         m.Name,
				Name:       m.Name,
				Source:     domain.SourceRemote,
				SizeBytes:  m.Size,
				Downloaded: true,
				ModifiedAt: m.ModifiedAt,
			})
		}
	}

	s.update(func() {
		s.models = models
		if remoteErr != nil {
			s.status = "Error loading models: " + remoteErr.Error()
			return
		}
		if s.source == domain.SourceNone {
			s.status = statusReady
		}
	})
	return remoteErr
}

// LoadModel makes id the active model. "mock" activates mock mode,
// catalog ids and .gguf paths go to the local engine, anything else is
// treated as a remote model name. When every local strategy fails the
// session falls back to mock mode and the error is returned.
func (s *Session) LoadModel(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty model id", local.ErrModelNotFound)
	}
	if strings.EqualFold(id, domain.MockModelID) {
		s.ActivateMockMode()
		return nil
	}

	ref, isLocal := s.localRef(id)
	if !isLocal && s.deps.Remote != nil {
		s.deps.Remote.Configure("", id)
		s.update(func() {
			s.source = domain.SourceRemote
			s.modelID = id
			s.status = fmt.Sprintf("Using %s on %s", id, s.deps.Remote.Endpoint())
		})
		return nil
	}

	if err := s.begin("Loading model..."); err != nil {
		return err
	}
	defer s.update(func() { s.loading = false })

	if s.deps.Loader == nil {
		s.update(func() { s.activateMockLocked(); s.status = statusMockFallback })
		return fmt.Errorf("%w: local engine", ErrNoBackend)
	}

	strategy, err := s.deps.Loader.Load(ctx, ref)
	if err != nil {
		s.log.Warn().Err(err).Str("model", id).Msg("model load failed, falling back to mock mode")
		s.update(func() {
			s.activateMockLocked()
			s.status = statusMockFallback
		})
		return err
	}
	s.update(func() {
		s.source = domain.SourceLocal
		s.modelID = ref.ID
		s.localReady = true
		s.status = fmt.Sprintf("Model loaded (%s), live mode active", strategy)
	})
	return nil
}

func (s *Session) localRef(id string) (local.Ref, bool) {
	dir := ""
	if s.deps.Downloader != nil {
		dir = s.deps.Downloader.Dir()
	}
	if e, ok := local.Lookup(id); ok {
		return local.RefFor(e, dir), true
	}
	if strings.HasSuffix(strings.ToLower(id), ".gguf") {
		base := filepath.Base(id)
		return local.Ref{ID: strings.TrimSuffix(base, filepath.Ext(base)), Name: base, Path: id}, true
	}
	return local.Ref{ID: id, Name: id}, s.deps.Remote == nil
}

// DownloadModel fetches a catalog model, or pulls a model onto the
// remote server when id is not in the catalog. Progress is published in
// [0,1] and cleared when the download ends.
func (s *Session) DownloadModel(ctx context.Context, id string) error {
	entry, inCatalog := local.Lookup(id)
	switch {
	case inCatalog && s.deps.Downloader == nil:
		return fmt.Errorf("%w: downloader", ErrNoBackend)
	case !inCatalog && s.deps.Remote == nil:
		return fmt.Errorf("%w: %s", local.ErrModelNotFound, id)
	}

	if err := s.begin("Downloading model..."); err != nil {
		return err
	}
	defer s.update(func() {
		s.loading = false
		s.progress = nil
	})

	report := func(p float64) {
		s.update(func() {
			s.progress = &p
			s.status = fmt.Sprintf("Downloading: %d%%", int(p*100))
		})
	}

	var err error
	if inCatalog {
		_, err = s.deps.Downloader.Download(ctx, entry, report)
	} else {
		err = s.deps.Remote.Pull(ctx, id, func(p domain.PullProgress) { report(p.Progress) })
	}
	if err != nil {
		s.log.Warn().Err(err).Str("model", id).Msg("download failed")
		s.update(func() { s.status = "Download failed: " + err.Error() })
		return err
	}
	s.log.Info().Str("model", id).Msg("download complete")
	s.update(func() {
		for i := range s.models {
			if s.models[i].ID == entry.ID || s.models[i].ID == id {
				s.models[i].Downloaded = true
			}
		}
		s.status = "Download complete, load " + id + " to start"
	})
	return nil
}

// begin marks the session busy with status, or reports why it cannot.
func (s *Session) begin(status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.loading {
		return ErrBusy
	}
	s.loading = true
	s.status = status
	s.publishLocked()
	return nil
}
