package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	s := NewStore("/data/work")

	if got := s.Resolve("iedb/full.csv"); got != filepath.Join("/data/work", "iedb/full.csv") {
		t.Errorf("Resolve relative = %q", got)
	}
	if got := s.Resolve("/abs/path.csv"); got != "/abs/path.csv" {
		t.Errorf("Resolve absolute = %q, want passthrough", got)
	}
}

func TestExistsAndMissing(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	present := s.Artifact("a", "a.csv")
	if err := os.WriteFile(present.Path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	absent := s.Artifact("b", "b.csv")

	if !present.Exists() {
		t.Error("present artifact reported missing")
	}
	if absent.Exists() {
		t.Error("absent artifact reported present")
	}

	missing := s.Missing([]Artifact{present, absent})
	if len(missing) != 1 || missing[0].Name != "b" {
		t.Errorf("Missing = %v, want [b]", missing)
	}
	if s.AllExist([]Artifact{present, absent}) {
		t.Error("AllExist should be false with one missing")
	}
	if !s.AllExist([]Artifact{present}) {
		t.Error("AllExist should be true when all present")
	}
}

func TestExistsIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	a := s.Artifact("d", "subdir")
	if err := os.Mkdir(a.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	if a.Exists() {
		t.Error("a directory should not count as a present artifact")
	}
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	a := s.Artifact("a", "a.csv")
	if err := os.WriteFile(a.Path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, err := a.Checksum()
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if sum != want {
		t.Errorf("Checksum = %s, want %s", sum, want)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	a := s.Artifact("a", "a.csv")
	if err := os.WriteFile(a.Path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(a); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if a.Exists() {
		t.Error("artifact still present after Remove")
	}
	// Removing an absent artifact is not an error.
	if err := s.Remove(a); err != nil {
		t.Errorf("Remove absent: %v", err)
	}
}

func TestWriteAtomicCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "out.json")

	if err := WriteAtomic(path, []byte("data")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestWriteReadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v.json")

	in := map[string]int{"a": 1}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out map[string]int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out["a"] != 1 {
		t.Errorf("round trip = %v", out)
	}
}
