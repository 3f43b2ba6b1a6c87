// Package testutil builds zip fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// Entry describes a file to place in a test archive.
type Entry struct {
	Name    string
	Content string

	// Modified is the modification time. The zero value leaves the MS-DOS
	// fields empty and adds no extended timestamp.
	Modified time.Time

	// Method is the compression method. Zero stores the entry uncompressed.
	Method uint16

	// Extra is appended to the header's extra block.
	Extra []byte
}

// BuildZip writes entries to an in-memory archive with the given comment.
func BuildZip(tb testing.TB, entries []Entry, comment string) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fh := &zip.FileHeader{
			Name:     e.Name,
			Method:   e.Method,
			Modified: e.Modified,
			Extra:    append([]byte(nil), e.Extra...),
		}
		fw, err := w.CreateHeader(fh)
		require.NoError(tb, err)
		if e.Content != "" {
			_, err = io.WriteString(fw, e.Content)
			require.NoError(tb, err)
		}
	}
	if comment != "" {
		require.NoError(tb, w.SetComment(comment))
	}
	require.NoError(tb, w.Close())
	return buf.Bytes()
}

// WriteZip builds an archive and writes it to name inside dir.
func WriteZip(tb testing.TB, dir, name string, entries []Entry) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(path, BuildZip(tb, entries, ""), 0o600))
	return path
}

// NewReader opens data as a zip archive.
func NewReader(tb testing.TB, data []byte) *zip.Reader {
	tb.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(tb, err)
	return zr
}

// ReadAll returns the decompressed content of f.
func ReadAll(tb testing.TB, f *zip.File) string {
	tb.Helper()

	rc, err := f.Open()
	require.NoError(tb, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(tb, err)
	return string(b)
}

// Find returns the entry named name.
func Find(tb testing.TB, zr *zip.Reader, name string) *zip.File {
	tb.Helper()

	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	require.Failf(tb, "entry not found", "%q", name)
	return nil
}

// FailingWriter fails every write after the first n bytes.
type FailingWriter struct {
	N   int
	Err error
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	if len(p) <= w.N {
		w.N -= len(p)
		return len(p), nil
	}
	n := w.N
	w.N = 0
	return n, w.Err
}

// DataDescriptor is the general purpose flag announcing a trailing data
// descriptor. JavaFlags adds the UTF-8 name flag, as java.util.zip writes.
const (
	DataDescriptor uint16 = 0x0008
	JavaFlags      uint16 = 0x0808
)

// JavaEmptyDeflate is the payload java.util.zip writes for directories:
// an empty final block with fixed Huffman codes.
var JavaEmptyDeflate = []byte{0x03, 0x00}

// RawEntry is an entry written byte for byte by BuildRawZip. It reproduces
// header shapes other zip producers emit and zip.Writer never does.
type RawEntry struct {
	Name    string
	Content string
	Method  uint16
	Flags   uint16

	// Payload replaces the stored bytes. Nil stores Content compressed with
	// Method. The CRC and uncompressed size always describe Content.
	Payload []byte

	ModifiedDate uint16
	ModifiedTime uint16

	// LocalExtra and CentralExtra are written to the local and central
	// headers respectively.
	LocalExtra   []byte
	CentralExtra []byte
}

// BuildRawZip assembles an archive from raw entries. Entries flagged with
// DataDescriptor get zeroed local sizes and a signed trailing descriptor.
func BuildRawZip(tb testing.TB, entries []RawEntry) []byte {
	tb.Helper()

	le := binary.LittleEndian
	var body, central []byte
	for _, e := range entries {
		payload := e.Payload
		if payload == nil {
			payload = compress(tb, e.Method, e.Content)
		}
		crc := crc32.ChecksumIEEE([]byte(e.Content))
		csize := uint32(len(payload))   //nolint:gosec // test fixtures are tiny
		usize := uint32(len(e.Content)) //nolint:gosec // test fixtures are tiny
		offset := uint32(len(body))     //nolint:gosec // test fixtures are tiny
		descriptor := e.Flags&DataDescriptor != 0

		body = le.AppendUint32(body, 0x04034b50)
		body = le.AppendUint16(body, 20)
		body = le.AppendUint16(body, e.Flags)
		body = le.AppendUint16(body, e.Method)
		body = le.AppendUint16(body, e.ModifiedTime)
		body = le.AppendUint16(body, e.ModifiedDate)
		if descriptor {
			body = le.AppendUint32(body, 0)
			body = le.AppendUint32(body, 0)
			body = le.AppendUint32(body, 0)
		} else {
			body = le.AppendUint32(body, crc)
			body = le.AppendUint32(body, csize)
			body = le.AppendUint32(body, usize)
		}
		body = le.AppendUint16(body, uint16(len(e.Name)))       //nolint:gosec // short names
		body = le.AppendUint16(body, uint16(len(e.LocalExtra))) //nolint:gosec // short extras
		body = append(body, e.Name...)
		body = append(body, e.LocalExtra...)
		body = append(body, payload...)
		if descriptor {
			body = le.AppendUint32(body, 0x08074b50)
			body = le.AppendUint32(body, crc)
			body = le.AppendUint32(body, csize)
			body = le.AppendUint32(body, usize)
		}

		central = le.AppendUint32(central, 0x02014b50)
		central = le.AppendUint16(central, 20)
		central = le.AppendUint16(central, 20)
		central = le.AppendUint16(central, e.Flags)
		central = le.AppendUint16(central, e.Method)
		central = le.AppendUint16(central, e.ModifiedTime)
		central = le.AppendUint16(central, e.ModifiedDate)
		central = le.AppendUint32(central, crc)
		central = le.AppendUint32(central, csize)
		central = le.AppendUint32(central, usize)
		central = le.AppendUint16(central, uint16(len(e.Name)))         //nolint:gosec // short names
		central = le.AppendUint16(central, uint16(len(e.CentralExtra))) //nolint:gosec // short extras
		central = le.AppendUint16(central, 0)                           // comment
		central = le.AppendUint16(central, 0)                           // disk
		central = le.AppendUint16(central, 0)                           // internal attributes
		central = le.AppendUint32(central, 0)                           // external attributes
		central = le.AppendUint32(central, offset)
		central = append(central, e.Name...)
		central = append(central, e.CentralExtra...)
	}

	n := uint16(len(entries)) //nolint:gosec // test fixtures are tiny
	out := append(body, central...)
	out = le.AppendUint32(out, 0x06054b50)
	out = le.AppendUint16(out, 0)
	out = le.AppendUint16(out, 0)
	out = le.AppendUint16(out, n)
	out = le.AppendUint16(out, n)
	out = le.AppendUint32(out, uint32(len(central))) //nolint:gosec // test fixtures are tiny
	out = le.AppendUint32(out, uint32(len(body)))    //nolint:gosec // test fixtures are tiny
	out = le.AppendUint16(out, 0)
	return out
}

func compress(tb testing.TB, method uint16, content string) []byte {
	tb.Helper()

	if method != zip.Deflate {
		return []byte(content)
	}
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(tb, err)
	_, err = io.WriteString(fw, content)
	require.NoError(tb, err)
	require.NoError(tb, fw.Close())
	return buf.Bytes()
}
