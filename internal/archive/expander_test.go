package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeTarGz(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for name, content := range members {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExpandZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "mhc_ligand_full.zip")
	writeZip(t, archivePath, map[string]string{
		"mhc_ligand_full.csv": "peptide,allele\n",
		"readme.txt":          "docs",
	})

	dest := filepath.Join(dir, "iedb")
	arts, err := Expand(archivePath, dest)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(arts))
	}
	got, err := os.ReadFile(filepath.Join(dest, "mhc_ligand_full.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "peptide,allele\n" {
		t.Errorf("member content = %q", got)
	}
}

func TestExpandTarGz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "build.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"build/atlas.csv": "hit,prob\n",
	})

	dest := filepath.Join(dir, "out")
	arts, err := Expand(archivePath, dest)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(arts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(arts))
	}
	if arts[0].Path != filepath.Join(dest, "build", "atlas.csv") {
		t.Errorf("artifact path = %s", arts[0].Path)
	}
	if !arts[0].Exists() {
		t.Error("extracted member missing on disk")
	}
}

func TestExpandSingleGz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "proteome.fasta.gz")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte(">sp|P01111\nMTEYK\n")); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := filepath.Join(dir, "out")
	arts, err := Expand(archivePath, dest)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(arts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(arts))
	}
	want := filepath.Join(dest, "proteome.fasta")
	if arts[0].Path != want {
		t.Errorf("artifact path = %s, want %s", arts[0].Path, want)
	}
	got, _ := os.ReadFile(want)
	if string(got) != ">sp|P01111\nMTEYK\n" {
		t.Errorf("content = %q", got)
	}
}

func TestExpandOverwrites(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "data.zip")
	writeZip(t, archivePath, map[string]string{"a.csv": "new"})

	dest := filepath.Join(dir, "out")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "a.csv"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Expand(archivePath, dest); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dest, "a.csv"))
	if string(got) != "new" {
		t.Errorf("re-extraction did not overwrite: %q", got)
	}
}

func TestExpandUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "data.rar")
	if err := os.WriteFile(archivePath, []byte("not an archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Expand(archivePath, filepath.Join(dir, "out"))
	var eerr *Error
	if !errors.As(err, &eerr) {
		t.Fatalf("error type = %T, want *archive.Error", err)
	}
}

func TestExpandMalformedArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "data.zip")
	if err := os.WriteFile(archivePath, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Expand(archivePath, filepath.Join(dir, "out"))
	var eerr *Error
	if !errors.As(err, &eerr) {
		t.Fatalf("error type = %T, want *archive.Error", err)
	}
}

func TestExpandRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{"../escape.txt": "evil"})

	dest := filepath.Join(dir, "out")
	if _, err := Expand(archivePath, dest); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Error("traversal member was written outside the destination")
	}
}
