// Package sink provides destinations for transformed archives.
package sink

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Sink is a writer whose output only becomes visible on Commit.
// Discard abandons the output; calling it after Commit is a no-op.
type Sink interface {
	io.Writer
	Commit() error
	Discard() error
}

// Stdout wraps w, typically os.Stdout, in a buffered passthrough sink.
// Bytes already flushed cannot be withdrawn by Discard.
func Stdout(w io.Writer) Sink {
	return &streamSink{w: bufio.NewWriterSize(w, 64*1024)}
}

type streamSink struct {
	w *bufio.Writer
}

func (s *streamSink) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *streamSink) Commit() error               { return s.w.Flush() }
func (s *streamSink) Discard() error              { return nil }

// defaultMode is applied to outputs that do not replace an existing file.
const defaultMode os.FileMode = 0o644

// Create opens a sink that writes to a temporary file next to path and
// renames it over path on Commit. The destination is untouched until then,
// so path may name the archive being read. A replaced file keeps its
// permission bits.
func Create(path string) (Sink, error) {
	mode := defaultMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &fileSink{
		file:      tmp,
		buf:       bufio.NewWriterSize(tmp, 64*1024),
		tmpPath:   tmp.Name(),
		finalPath: path,
		mode:      mode,
	}, nil
}

type fileSink struct {
	file      *os.File
	buf       *bufio.Writer
	tmpPath   string
	finalPath string
	mode      os.FileMode
	done      bool
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *fileSink) Commit() error {
	if s.done {
		return errors.New("sink: already finished")
	}
	s.done = true
	if err := s.buf.Flush(); err != nil {
		return s.abort(err)
	}
	if err := s.file.Sync(); err != nil {
		return s.abort(err)
	}
	if err := s.file.Close(); err != nil {
		_ = os.Remove(s.tmpPath)
		return err
	}
	if err := os.Chmod(s.tmpPath, s.mode); err != nil {
		_ = os.Remove(s.tmpPath)
		return err
	}
	if err := os.Rename(s.tmpPath, s.finalPath); err != nil {
		_ = os.Remove(s.tmpPath)
		return err
	}
	return nil
}

func (s *fileSink) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.file.Close()
	return os.Remove(s.tmpPath)
}

func (s *fileSink) abort(err error) error {
	_ = s.file.Close()
	_ = os.Remove(s.tmpPath)
	return err
}
