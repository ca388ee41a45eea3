package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store resolves logical artifact paths against a working-directory root
// and answers presence queries. All pipeline paths are relative to the
// root; nothing consults the process working directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Resolve maps a workdir-relative path to an absolute one. Absolute
// inputs pass through unchanged.
func (s *Store) Resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.root, rel)
}

// Artifact builds an Artifact for a workdir-relative path.
func (s *Store) Artifact(name, rel string) Artifact {
	return Artifact{Name: name, Path: s.Resolve(rel)}
}

// Missing returns the subset of artifacts not present on disk.
func (s *Store) Missing(arts []Artifact) []Artifact {
	var missing []Artifact
	for _, a := range arts {
		if !a.Exists() {
			missing = append(missing, a)
		}
	}
	return missing
}

// AllExist reports whether every artifact in the set is present.
func (s *Store) AllExist(arts []Artifact) bool {
	return len(s.Missing(arts)) == 0
}

// EnsureParent creates the parent directory of path if needed.
func (s *Store) EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// Remove deletes an artifact from disk if present. Used to discard
// partial outputs of a failed stage so a re-run does not skip it.
func (s *Store) Remove(a Artifact) error {
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", a.Path, err)
	}
	return nil
}

// WriteAtomic replaces the file at path in a single rename. Data is
// staged in a temp file next to the destination, so readers see either
// the old content or the new, never a torn write.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".stage-*")
	if err != nil {
		return fmt.Errorf("stage temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s into place: %w", tmp.Name(), err)
	}
	return nil
}

// WriteJSON persists v at path as indented JSON, atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return WriteAtomic(path, append(data, '\n'))
}

// ReadJSON loads the JSON file at path into v. A missing file surfaces
// as the raw os error so callers can test with os.IsNotExist.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
