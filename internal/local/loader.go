package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Ref names a model in every form a strategy may try.
type Ref struct {
	ID   string
	Name string
	Path string
}

// RefFor builds the reference for a catalog entry stored under dir.
func RefFor(entry CatalogEntry, dir string) Ref {
	return Ref{
		ID:   entry.ID,
		Name: entry.Name,
		Path: filepath.Join(dir, entry.FileName),
	}
}

// Strategy is one way of binding a model.
type Strategy struct {
	Name string
	Load func(ctx context.Context, ref Ref) error
}

// Loader tries strategies in order until one binds the model.
type Loader struct {
	strategies []Strategy
	log        zerolog.Logger
}

// NewLoader returns a Loader with the by-path, by-name and by-id
// strategies against engine.
func NewLoader(engine Engine, minBytes int64, log zerolog.Logger) *Loader {
	return NewLoaderWithStrategies(log,
		Strategy{Name: "by-path", Load: byPath(engine, minBytes)},
		Strategy{Name: "by-name", Load: byField(engine, func(r Ref) string { return r.Name })},
		Strategy{Name: "by-id", Load: byField(engine, func(r Ref) string { return r.ID })},
	)
}

// NewLoaderWithStrategies returns a Loader running the given strategies.
func NewLoaderWithStrategies(log zerolog.Logger, strategies ...Strategy) *Loader {
	return &Loader{
		strategies: strategies,
		log:        log.With().Str("component", "loader").Logger(),
	}
}

// Load runs each strategy in order and returns the name of the first one
// that succeeds.
func (l *Loader) Load(ctx context.Context, ref Ref) (string, error) {
	var errs []error
	for _, s := range l.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		l.log.Debug().Str("strategy", s.Name).Str("model", ref.ID).Msg("attempting load")
		err := s.Load(ctx, ref)
		if err == nil {
			l.log.Info().
				Str("strategy", s.Name).
				Str("model", ref.ID).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Msg("model loaded")
			return s.Name, nil
		}
		l.log.Warn().Err(err).Str("strategy", s.Name).Str("model", ref.ID).Msg("load attempt failed")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	l.log.Error().Str("model", ref.ID).Msg("all loading strategies failed")
	return "", fmt.Errorf("%w: %w", ErrAllStrategiesFailed, errors.Join(errs...))
}

func byPath(engine Engine, minBytes int64) func(context.Context, Ref) error {
	return func(ctx context.Context, ref Ref) error {
		if ref.Path == "" {
			return fmt.Errorf("%w: no file path", ErrModelNotFound)
		}
		if err := CheckFile(ref.Path, minBytes); err != nil {
			return err
		}
		return engine.LoadModel(ctx, ref.Path)
	}
}

func byField(engine Engine, field func(Ref) string) func(context.Context, Ref) error {
	return func(ctx context.Context, ref Ref) error {
		v := field(ref)
		if v == "" {
			return fmt.Errorf("%w: empty reference", ErrModelNotFound)
		}
		return engine.LoadModel(ctx, v)
	}
}

// CheckFile verifies that path exists and holds at least minBytes.
func CheckFile(path string, minBytes int64) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("stat model file: %w", err)
	}
	if info.Size() < minBytes {
		return fmt.Errorf("%w: %s is %d bytes", ErrModelTooSmall, path, info.Size())
	}
	return nil
}
