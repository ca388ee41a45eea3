// Package archive expands compressed archives into a destination
// directory, producing one artifact per extracted member.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"datapipe/internal/artifact"
)

// Error reports a malformed or unsupported archive.
type Error struct {
	Archive string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expand %s: %v", e.Archive, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Expand extracts archivePath into destDir and returns one artifact per
// extracted file. Re-extraction overwrites existing files; the caller
// decides whether to skip based on expected output presence. The format
// is chosen from the file name: .zip, .tar.gz/.tgz, .tar.bz2, .tar, and
// single-file .gz and .bz2.
func Expand(archivePath, destDir string) ([]artifact.Artifact, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &Error{Archive: archivePath, Err: err}
	}

	name := strings.ToLower(filepath.Base(archivePath))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return expandZip(archivePath, destDir)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return expandTar(archivePath, destDir, decodeGzip)
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz2"):
		return expandTar(archivePath, destDir, decodeBzip2)
	case strings.HasSuffix(name, ".tar"):
		return expandTar(archivePath, destDir, nil)
	case strings.HasSuffix(name, ".gz"):
		return expandSingle(archivePath, destDir, decodeGzip)
	case strings.HasSuffix(name, ".bz2"):
		return expandSingle(archivePath, destDir, decodeBzip2)
	}
	return nil, &Error{Archive: archivePath, Err: fmt.Errorf("unsupported archive format %q", name)}
}

type decoder func(io.Reader) (io.Reader, error)

func decodeGzip(r io.Reader) (io.Reader, error) {
	return gzip.NewReader(r)
}

func decodeBzip2(r io.Reader) (io.Reader, error) {
	return bzip2.NewReader(r), nil
}

// memberPath validates an archive member name and resolves it under
// destDir, rejecting absolute names and traversal outside the
// destination.
func memberPath(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive member %q escapes destination", name)
	}
	return filepath.Join(destDir, cleaned), nil
}

func expandZip(archivePath, destDir string) ([]artifact.Artifact, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &Error{Archive: archivePath, Err: err}
	}
	defer zr.Close()

	var arts []artifact.Artifact
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		path, err := memberPath(destDir, member.Name)
		if err != nil {
			return nil, &Error{Archive: archivePath, Err: err}
		}
		rc, err := member.Open()
		if err != nil {
			return nil, &Error{Archive: archivePath, Err: err}
		}
		err = writeMember(path, rc)
		rc.Close()
		if err != nil {
			return nil, &Error{Archive: archivePath, Err: err}
		}
		arts = append(arts, artifact.Artifact{Name: member.Name, Path: path})
	}
	return arts, nil
}

func expandTar(archivePath, destDir string, decode decoder) ([]artifact.Artifact, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &Error{Archive: archivePath, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if decode != nil {
		r, err = decode(f)
		if err != nil {
			return nil, &Error{Archive: archivePath, Err: err}
		}
	}

	var arts []artifact.Artifact
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{Archive: archivePath, Err: err}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		path, err := memberPath(destDir, hdr.Name)
		if err != nil {
			return nil, &Error{Archive: archivePath, Err: err}
		}
		if err := writeMember(path, tr); err != nil {
			return nil, &Error{Archive: archivePath, Err: err}
		}
		arts = append(arts, artifact.Artifact{Name: hdr.Name, Path: path})
	}
	return arts, nil
}

// expandSingle decompresses a single-file archive like retrieved.csv.bz2,
// dropping the compression suffix for the output name.
func expandSingle(archivePath, destDir string, decode decoder) ([]artifact.Artifact, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &Error{Archive: archivePath, Err: err}
	}
	defer f.Close()

	r, err := decode(f)
	if err != nil {
		return nil, &Error{Archive: archivePath, Err: err}
	}

	base := filepath.Base(archivePath)
	name := strings.TrimSuffix(strings.TrimSuffix(base, ".gz"), ".bz2")
	path := filepath.Join(destDir, name)
	if err := writeMember(path, r); err != nil {
		return nil, &Error{Archive: archivePath, Err: err}
	}
	return []artifact.Artifact{{Name: name, Path: path}}, nil
}

func writeMember(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
