package zip1970

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/zip1970/internal/extra"
)

const defaultBufferSize = 32 * 1024

// dataDescriptorFlag marks entries whose CRC and sizes follow the data.
const dataDescriptorFlag = 0x8

// Stats summarizes a Process call.
type Stats struct {
	// Entries is the number of entries written.
	Entries int

	// Patched is the number of entries whose timestamps were overridden.
	Patched int

	// Bytes is the number of stored (possibly compressed) content bytes copied.
	Bytes int64
}

// Transformer copies zip archives while overriding entry timestamps.
//
// A Transformer holds no per-call state and may be reused.
type Transformer struct {
	filter    Filter
	overrides Overrides
	logger    *slog.Logger
	bufSize   int
}

// NewTransformer creates a Transformer with the given options.
// Without options it copies archives unchanged.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		logger:  slog.New(slog.DiscardHandler),
		bufSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Process writes a copy of src to dst.
//
// Entries are written in source order. Each entry's stored bytes are copied
// without recompression, so content, CRC and compression method are
// preserved. Entries that pass the filter get the configured overrides; the
// filter never drops an entry. Overrides that cannot be recorded fail with
// ErrInvalidTime before anything is written. The first error aborts the copy
// and is returned; dst may then hold a partial archive.
func (t *Transformer) Process(src *zip.Reader, dst io.Writer) (Stats, error) {
	var stats Stats
	if err := t.overrides.Validate(); err != nil {
		return stats, err
	}
	w := zip.NewWriter(dst)
	if src.Comment != "" {
		if err := w.SetComment(src.Comment); err != nil {
			return stats, err
		}
	}

	buf := make([]byte, t.bufSize)
	for _, f := range src.File {
		patched, n, err := t.copyEntry(w, f, buf)
		if err != nil {
			return stats, err
		}
		stats.Entries++
		stats.Bytes += n
		if patched {
			stats.Patched++
		}
		t.logger.Debug("copied entry",
			slog.String("entry", f.Name),
			slog.Bool("patched", patched),
			slog.Int64("bytes", n))
	}

	if err := w.Close(); err != nil {
		return stats, fmt.Errorf("finish archive: %w", err)
	}
	return stats, nil
}

// copyEntry writes one entry and reports whether its timestamps were patched.
func (t *Transformer) copyEntry(w *zip.Writer, f *zip.File, buf []byte) (bool, int64, error) {
	fh := f.FileHeader
	// The writer regenerates zip64 records from the sizes.
	fh.Extra = extra.Strip(fh.Extra, extra.Zip64ID)

	patched := false
	if !t.overrides.IsZero() && t.filter.Match(f.Name) {
		if err := patchHeader(&fh, t.overrides.Apply(ReadTimes(&f.FileHeader))); err != nil {
			return false, 0, err
		}
		patched = true
	}

	if strings.HasSuffix(f.Name, "/") {
		return patched, 0, copyDir(w, f, &fh)
	}

	r, err := f.OpenRaw()
	if err != nil {
		return false, 0, fmt.Errorf("open %s: %w", f.Name, err)
	}
	ew, err := w.CreateRaw(&fh)
	if err != nil {
		return false, 0, fmt.Errorf("create %s: %w", f.Name, err)
	}
	n, err := io.CopyBuffer(ew, r, buf)
	if err != nil {
		return false, n, fmt.Errorf("copy %s: %w", f.Name, err)
	}
	return patched, n, nil
}

// copyDir writes a directory entry as an empty stored entry. Some producers,
// java.util.zip among them, deflate an empty payload for directories and
// follow it with a data descriptor; the writer only takes empty directories.
func copyDir(w *zip.Writer, f *zip.File, fh *zip.FileHeader) error {
	if f.CompressedSize64 > 0 || f.UncompressedSize64 > 0 {
		if err := checkEmpty(f); err != nil {
			return err
		}
	}
	fh.Method = zip.Store
	fh.Flags &^= dataDescriptorFlag
	fh.CRC32 = 0
	fh.CompressedSize, fh.UncompressedSize = 0, 0
	fh.CompressedSize64, fh.UncompressedSize64 = 0, 0
	if _, err := w.CreateRaw(fh); err != nil {
		return fmt.Errorf("create %s: %w", f.Name, err)
	}
	return nil
}

// checkEmpty verifies that a directory's payload decompresses to nothing.
func checkEmpty(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	n, err := io.Copy(io.Discard, io.LimitReader(rc, 1))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrInvalidArchive, f.Name, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: directory %s has content", ErrInvalidArchive, f.Name)
	}
	return nil
}
