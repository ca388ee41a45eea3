// Package artifact defines path-addressed pipeline artifacts and the
// workdir-rooted store that resolves and tracks them.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Artifact is a named, path-addressed unit of pipeline output.
// An artifact is immutable once produced: the stage that created it owns
// the path, and later stages only read it.
type Artifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Exists reports whether the artifact is present on disk as a regular file.
func (a Artifact) Exists() bool {
	info, err := os.Stat(a.Path)
	return err == nil && info.Mode().IsRegular()
}

// Checksum returns the hex-encoded SHA-256 of the artifact's content.
func (a Artifact) Checksum() (string, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", a.Path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", a.Path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
