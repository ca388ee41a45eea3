package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codecs recognized by the compression post-step.
var Codecs = map[string]bool{
	"gz":  true,
	"bz2": true,
	"zst": true,
}

// compressFile replaces src with its compressed form at dst. The
// compressed file is written next to dst and renamed into place before
// the original is removed, so a crash never loses the only copy.
func compressFile(src, dst, codec string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".compress-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	var w io.WriteCloser
	switch codec {
	case "gz":
		w = gzip.NewWriter(tmp)
	case "bz2":
		w, err = bzip2.NewWriter(tmp, nil)
		if err != nil {
			tmp.Close()
			return err
		}
	case "zst":
		w, err = zstd.NewWriter(tmp)
		if err != nil {
			tmp.Close()
			return err
		}
	default:
		tmp.Close()
		return fmt.Errorf("unknown codec %q", codec)
	}

	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		tmp.Close()
		return err
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return err
	}
	tmpName = ""
	return os.Remove(src)
}
