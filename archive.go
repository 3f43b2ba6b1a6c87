package zip1970

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/zip1970/internal/remote"
)

// Archive is an open source archive.
//
// Zip readers need random access because the central directory is at the end
// of the file, so streamed input is spooled to a temporary file first. Remote
// archives are read in place with range requests when the server allows it.
type Archive struct {
	reader *zip.Reader
	file   *os.File
	spool  string
}

// Open opens the archive at path. An empty path or "-" reads standard input
// and an http or https URL is fetched remotely.
func Open(path string) (*Archive, error) {
	if path == "" || path == "-" {
		return OpenReader(os.Stdin)
	}
	if remote.IsURL(path) {
		return OpenURL(path)
	}
	f, err := os.Open(path) //nolint:gosec // path is user supplied by design
	if err != nil {
		return nil, err
	}
	a, err := newArchive(f, "")
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return a, nil
}

// OpenReader spools r to a temporary file and opens it as an archive.
// The temporary file is removed by Close.
func OpenReader(r io.Reader) (*Archive, error) {
	tmp, err := os.CreateTemp("", "zip1970-*.zip")
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return nil, fmt.Errorf("spool input: %w", err)
	}
	a, err := newArchive(tmp, tmp.Name())
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("open <stdin>: %w", err)
	}
	return a, nil
}

// OpenURL opens a remote archive. Servers without range support are
// downloaded into a spool file instead.
func OpenURL(url string, opts ...remote.Option) (*Archive, error) {
	src, err := remote.Open(url, opts...)
	if errors.Is(err, remote.ErrRangeUnsupported) {
		body, err := remote.Fetch(url, opts...)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return OpenReader(body)
	}
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(src, src.Size())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", url, ErrInvalidArchive, err)
	}
	return &Archive{reader: zr}, nil
}

func newArchive(f *os.File, spool string) (*Archive, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	return &Archive{reader: zr, file: f, spool: spool}, nil
}

// Reader returns the zip reader over the archive.
func (a *Archive) Reader() *zip.Reader {
	return a.reader
}

// Close releases the archive and removes any spool file.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	if a.spool != "" {
		if rmErr := os.Remove(a.spool); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}
	return err
}
