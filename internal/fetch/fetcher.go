// Package fetch downloads remote resources to local paths with
// skip-if-present caching and atomic writes.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"datapipe/internal/artifact"
)

// Error reports a failed download.
type Error struct {
	URL    string
	Status int // HTTP status code, 0 if the failure was not an HTTP response
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Doer abstracts the HTTP client for testability.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads URLs to destination paths. A destination that already
// exists is a cache hit: no network access happens.
type Fetcher struct {
	client Doer
	logger *zap.Logger
}

// New creates a Fetcher using the given HTTP client. A nil logger disables
// logging.
func New(client Doer, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch ensures dest holds the resource at url and returns the artifact
// referencing it. If dest exists the download is skipped entirely.
// Downloads are written to a temp file and renamed on completion, so a
// crash mid-download never leaves a corrupt file mistaken for a valid
// cache entry. No automatic retry; callers may wrap with a retry policy.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (artifact.Artifact, error) {
	art := artifact.Artifact{Name: filepath.Base(dest), Path: dest}
	if art.Exists() {
		f.logger.Debug("fetch cache hit", zap.String("dest", dest))
		return art, nil
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return art, &Error{URL: url, Err: fmt.Errorf("mkdir %s: %w", dir, err)}
	}

	f.logger.Info("downloading", zap.String("url", url), zap.String("dest", dest))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return art, &Error{URL: url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return art, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return art, &Error{URL: url, Status: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return art, &Error{URL: url, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return art, &Error{URL: url, Err: fmt.Errorf("write %s: %w", dest, err)}
	}
	if err := tmp.Close(); err != nil {
		return art, &Error{URL: url, Err: fmt.Errorf("close %s: %w", dest, err)}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return art, &Error{URL: url, Err: fmt.Errorf("rename into place: %w", err)}
	}
	tmpName = "" // prevent deferred removal

	return art, nil
}
