package zip1970

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/opencontainers/go-digest"
)

// EntryInfo describes one archive entry.
type EntryInfo struct {
	// Name is the entry name as stored in the archive.
	Name string

	// Times are the recorded timestamps.
	Times Times

	// Match reports whether the entry passes the filter used for inspection.
	Match bool

	// Size is the uncompressed size in bytes.
	Size uint64

	// Digest is the sha256 digest of the uncompressed content.
	Digest digest.Digest
}

// Inspect lists the entries of src in archive order.
//
// Every entry is decompressed to compute its digest, which also verifies its
// CRC-32. Entries with a stored size of zero still get the empty digest.
func Inspect(src *zip.Reader, f Filter) ([]EntryInfo, error) {
	infos := make([]EntryInfo, 0, len(src.File))
	for _, zf := range src.File {
		d, err := contentDigest(zf)
		if err != nil {
			return nil, err
		}
		infos = append(infos, EntryInfo{
			Name:   zf.Name,
			Times:  ReadTimes(&zf.FileHeader),
			Match:  f.Match(zf.Name),
			Size:   zf.UncompressedSize64,
			Digest: d,
		})
	}
	return infos, nil
}

func contentDigest(zf *zip.File) (digest.Digest, error) {
	rc, err := zf.Open()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", zf.Name, err)
	}
	defer rc.Close()

	digester := digest.SHA256.Digester()
	if _, err := io.Copy(digester.Hash(), rc); err != nil {
		return "", fmt.Errorf("read %s: %w", zf.Name, err)
	}
	return digester.Digest(), nil
}
