package zip1970

import (
	"fmt"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/zip1970/internal/extra"
)

// Times holds an entry's creation, modification and access timestamps.
// A zero time.Time means the archive does not record that field.
type Times = extra.Times

// ReadTimes returns the timestamps recorded for an entry.
//
// The modification time is the header's resolved Modified value. Creation and
// access times come from NTFS, extended timestamp and Unix extra fields.
// Only central directory extras are consulted.
func ReadTimes(fh *zip.FileHeader) Times {
	var t Times
	if fields, err := extra.Parse(fh.Extra); err == nil {
		t = extra.ReadTimes(fields)
	}
	t.Modified = fh.Modified
	return t
}

// patchHeader rewrites the timestamp metadata of fh to t.
//
// NTFS and extended timestamp fields are replaced by a fresh one: NTFS when
// the entry already used it or a time falls outside 32-bit Unix range,
// otherwise extended timestamp. Unix fields are patched in place so their
// uid/gid survive, or dropped when the new times do not fit them. A present
// time that no field can hold is an ErrInvalidTime error.
func patchHeader(fh *zip.FileHeader, t Times) error {
	fields, err := extra.Parse(fh.Extra)
	if err != nil {
		return fmt.Errorf("%w: patch %s: %w", ErrInvalidArchive, fh.Name, err)
	}

	useNTFS := extra.Has(fields, extra.NTFSID) || !extra.FitsUnix32(t)
	kept := make([]extra.Field, 0, len(fields)+1)
	for _, f := range extra.Without(fields, extra.Zip64ID, extra.NTFSID, extra.ExtTimeID) {
		if patched, ok := extra.PatchUnix(f, t); ok {
			kept = append(kept, patched)
		}
	}

	if !t.IsZero() {
		var field extra.Field
		ok := false
		if !useNTFS {
			field, ok = extra.ExtTime(t)
		}
		if !ok {
			field, ok = extra.NTFS(t)
		}
		if !ok {
			return fmt.Errorf("patch %s: %w: outside the range zip extra fields can record", fh.Name, ErrInvalidTime)
		}
		kept = append(kept, field)
	}

	encoded, err := extra.Encode(kept)
	if err != nil {
		return fmt.Errorf("%w: patch %s: %w", ErrInvalidArchive, fh.Name, err)
	}
	fh.Extra = encoded
	fh.Modified = t.Modified
	if !t.Modified.IsZero() {
		fh.ModifiedDate, fh.ModifiedTime = extra.DOSTime(t.Modified)
	}
	return nil
}
