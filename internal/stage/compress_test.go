package stage

import (
	"compress/bzip2"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func decompress(t *testing.T, path, codec string) []byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var r io.Reader
	switch codec {
	case "gz":
		r, err = gzip.NewReader(f)
		if err != nil {
			t.Fatal(err)
		}
	case "bz2":
		r = bzip2.NewReader(f)
	case "zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			t.Fatal(err)
		}
		defer zr.Close()
		r = zr
	default:
		t.Fatalf("unknown codec %q", codec)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestCompressFileCodecs(t *testing.T) {
	content := []byte("allele,peptide,affinity\nHLA-A*02:01,SIINFEKL,120.5\n")

	for codec := range Codecs {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "curated.csv")
			dst := src + "." + codec
			if err := os.WriteFile(src, content, 0o644); err != nil {
				t.Fatal(err)
			}

			if err := compressFile(src, dst, codec); err != nil {
				t.Fatalf("compressFile(%s): %v", codec, err)
			}

			if _, err := os.Stat(src); !os.IsNotExist(err) {
				t.Errorf("original file still present after %s compression", codec)
			}
			if got := decompress(t, dst, codec); string(got) != string(content) {
				t.Errorf("%s round trip = %q, want %q", codec, got, content)
			}
		})
	}
}

func TestCompressFileUnknownCodec(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.csv")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := compressFile(src, src+".rar", "rar"); err == nil {
		t.Fatal("expected error for unknown codec")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("original file must survive a failed compression: %v", err)
	}
}
