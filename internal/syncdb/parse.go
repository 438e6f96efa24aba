package syncdb

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/roach88/blup/internal/blacklist"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicXz   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// ErrMissingName is returned for a desc file without a %NAME% section.
var ErrMissingName = errors.New("desc has no %NAME% section")

// ReadRecords parses a sync database from r. The compression is detected
// from the leading bytes; gzip, zstd and plain tar are supported.
func ReadRecords(r io.Reader, repo string) ([]blacklist.PackageRecord, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(magicXz))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var archive io.Reader = br
	switch {
	case bytes.HasPrefix(head, magicGzip):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		archive = zr
	case bytes.HasPrefix(head, magicZstd):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		archive = zr
	case bytes.HasPrefix(head, magicXz):
		return nil, errors.New("xz compressed sync databases are not supported")
	}

	var out []blacklist.PackageRecord
	tr := tar.NewReader(archive)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Base(hdr.Name) != "desc" {
			continue
		}
		rec, err := parseDesc(tr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		rec.Repo = repo
		out = append(out, rec)
	}
	return out, nil
}

// parseDesc reads the %NAME%, %PROVIDES% and %REPLACES% sections of a desc
// file. Each section is a header line followed by values up to a blank line.
func parseDesc(r io.Reader) (blacklist.PackageRecord, error) {
	var (
		rec     blacklist.PackageRecord
		section string
		names   []string
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "":
			section = ""
		case section == "" && len(line) > 2 && line[0] == '%' && line[len(line)-1] == '%':
			section = line[1 : len(line)-1]
		default:
			switch section {
			case "NAME":
				names = append(names, line)
			case "PROVIDES":
				rec.Provides = append(rec.Provides, line)
			case "REPLACES":
				rec.Replaces = append(rec.Replaces, line)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return rec, err
	}
	if len(names) == 0 {
		return rec, ErrMissingName
	}
	rec.Name = names[0]
	return rec, nil
}
