package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression selects the outer encoding of a fixture sync DB.
type Compression int

const (
	Uncompressed Compression = iota
	Gzip
	Zstd
)

// FixturePackage describes one package entry of a fixture sync DB.
type FixturePackage struct {
	Name     string
	Version  string
	Provides []string
	Replaces []string
}

// WriteSyncDB writes a pacman-style sync database to path: a tar archive
// holding one "<name>-<version>/desc" file per package.
func WriteSyncDB(tb testing.TB, path string, comp Compression, pkgs ...FixturePackage) {
	tb.Helper()

	data, err := BuildSyncDB(comp, pkgs...)
	if err != nil {
		tb.Fatalf("build sync db: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("create sync db dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write sync db: %v", err)
	}
}

// BuildSyncDB returns the bytes of a sync database holding pkgs.
func BuildSyncDB(comp Compression, pkgs ...FixturePackage) ([]byte, error) {
	var buf bytes.Buffer

	var w io.WriteCloser
	switch comp {
	case Uncompressed:
		w = nopWriteCloser{&buf}
	case Gzip:
		w = gzip.NewWriter(&buf)
	case Zstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		w = zw
	default:
		return nil, fmt.Errorf("unknown compression %d", comp)
	}

	tw := tar.NewWriter(w)
	mtime := time.Unix(1700000000, 0)
	for _, pkg := range pkgs {
		version := pkg.Version
		if version == "" {
			version = "1.0-1"
		}
		dir := pkg.Name + "-" + version + "/"
		if err := tw.WriteHeader(&tar.Header{
			Name:     dir,
			Typeflag: tar.TypeDir,
			Mode:     0o755,
			ModTime:  mtime,
		}); err != nil {
			return nil, err
		}

		desc := renderDesc(pkg, version)
		if err := tw.WriteHeader(&tar.Header{
			Name:     dir + "desc",
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(desc)),
			ModTime:  mtime,
		}); err != nil {
			return nil, err
		}
		if _, err := io.WriteString(tw, desc); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderDesc(pkg FixturePackage, version string) string {
	var b strings.Builder
	section := func(name string, values ...string) {
		if len(values) == 0 {
			return
		}
		fmt.Fprintf(&b, "%%%s%%\n", name)
		for _, v := range values {
			b.WriteString(v)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	section("FILENAME", fmt.Sprintf("%s-%s-x86_64.pkg.tar.zst", pkg.Name, version))
	section("NAME", pkg.Name)
	section("VERSION", version)
	section("ARCH", "x86_64")
	section("PROVIDES", pkg.Provides...)
	section("REPLACES", pkg.Replaces...)
	return b.String()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
