package local

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// SpaceBuffer is the free space required on top of a model's size.
const SpaceBuffer = 100 << 20

// Downloader fetches catalog models into a directory.
type Downloader struct {
	dir      string
	minBytes int64
	http     *http.Client
	log      zerolog.Logger
	// freeSpace reports available bytes under a directory; ok is false
	// when the platform cannot tell.
	freeSpace func(dir string) (free uint64, ok bool, err error)
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(dir string, minBytes int64, log zerolog.Logger) *Downloader {
	return &Downloader{
		dir:       dir,
		minBytes:  minBytes,
		http:      &http.Client{},
		log:       log.With().Str("component", "downloader").Logger(),
		freeSpace: diskFree,
	}
}

// Dir returns the models directory.
func (d *Downloader) Dir() string { return d.dir }

// Path returns where entry is stored.
func (d *Downloader) Path(entry CatalogEntry) string {
	return filepath.Join(d.dir, entry.FileName)
}

// Exists reports whether entry is already on disk and passes the size check.
func (d *Downloader) Exists(entry CatalogEntry) bool {
	return CheckFile(d.Path(entry), d.minBytes) == nil
}

// Download fetches entry and reports progress in [0,1] to fn. The file is
// written to a temporary name and renamed once complete; a failed or
// undersized download leaves nothing behind.
func (d *Downloader) Download(ctx context.Context, entry CatalogEntry, fn func(float64)) (string, error) {
	if fn == nil {
		fn = func(float64) {}
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating models dir: %w", err)
	}
	if err := d.checkSpace(entry); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", entry.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: status %d", entry.ID, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, entry.FileName+".*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	d.log.Info().Str("model", entry.ID).Int64("size", resp.ContentLength).Msg("download started")
	pw := &progressWriter{total: resp.ContentLength, fn: fn, last: -1}
	n, err := io.Copy(tmp, io.TeeReader(resp.Body, pw))
	if err != nil {
		d.log.Warn().Err(err).Str("model", entry.ID).Msg("download failed")
		return "", fmt.Errorf("downloading %s: %w", entry.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if n < d.minBytes {
		return "", fmt.Errorf("%w: downloaded %d bytes", ErrModelTooSmall, n)
	}

	dest := d.Path(entry)
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("moving model into place: %w", err)
	}
	ok = true
	fn(1)
	d.log.Info().Str("model", entry.ID).Int64("bytes", n).Str("path", dest).Msg("download complete")
	return dest, nil
}

// checkSpace fails when the models directory cannot hold entry plus
// SpaceBuffer. Entries of unknown size are not checked.
func (d *Downloader) checkSpace(entry CatalogEntry) error {
	if entry.SizeBytes <= 0 || d.freeSpace == nil {
		return nil
	}
	free, ok, err := d.freeSpace(d.dir)
	if err != nil {
		return fmt.Errorf("checking free space: %w", err)
	}
	if !ok {
		return nil
	}
	need := uint64(entry.SizeBytes) + SpaceBuffer
	if free < need {
		d.log.Warn().Str("model", entry.ID).Uint64("free", free).Uint64("need", need).Msg("not enough disk space")
		return fmt.Errorf("%w: need %d MB, %d MB free", ErrInsufficientSpace, need>>20, free>>20)
	}
	return nil
}

// progressWriter turns written byte counts into whole-percent updates.
type progressWriter struct {
	total   int64
	written int64
	last    int
	fn      func(float64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}
	pct := int(p.written * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	// 100 is reported by Download after the rename.
	if pct != p.last && pct < 100 {
		p.last = pct
		p.fn(float64(pct) / 100)
	}
	return len(b), nil
}
