// Package extra reads and rewrites the zip extra fields that carry timestamps.
//
// An extra block is a sequence of (id uint16, size uint16, data) records stored
// little-endian after the file name in both the local and central headers.
package extra

import (
	"encoding/binary"
	"errors"
	"slices"
)

// Header IDs understood by this package.
const (
	Zip64ID       uint16 = 0x0001
	NTFSID        uint16 = 0x000a
	UnixID        uint16 = 0x000d
	ExtTimeID     uint16 = 0x5455
	InfoZipUnixID uint16 = 0x5855
)

// maxFieldSize is the largest payload a single record can declare.
const maxFieldSize = 0xffff

// ErrMalformed is returned when an extra block or field is truncated.
var ErrMalformed = errors.New("extra: malformed field")

// Field is a single extra record.
type Field struct {
	ID   uint16
	Data []byte
}

// Parse splits an extra block into its records.
// The returned fields alias b.
func Parse(b []byte) ([]Field, error) {
	var fields []Field
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, ErrMalformed
		}
		id := binary.LittleEndian.Uint16(b)
		size := int(binary.LittleEndian.Uint16(b[2:]))
		b = b[4:]
		if size > len(b) {
			return nil, ErrMalformed
		}
		fields = append(fields, Field{ID: id, Data: b[:size:size]})
		b = b[size:]
	}
	return fields, nil
}

// Encode serializes fields into a freshly allocated extra block.
// Fields with payloads over 64 KiB are rejected.
func Encode(fields []Field) ([]byte, error) {
	n := 0
	for _, f := range fields {
		if len(f.Data) > maxFieldSize {
			return nil, ErrMalformed
		}
		n += 4 + len(f.Data)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, 0, n)
	for _, f := range fields {
		out = binary.LittleEndian.AppendUint16(out, f.ID)
		out = binary.LittleEndian.AppendUint16(out, uint16(len(f.Data))) //nolint:gosec // bounded above
		out = append(out, f.Data...)
	}
	return out, nil
}

// Without returns fields minus every record whose ID is in ids.
func Without(fields []Field, ids ...uint16) []Field {
	return slices.DeleteFunc(slices.Clone(fields), func(f Field) bool {
		return slices.Contains(ids, f.ID)
	})
}

// Has reports whether any field has the given ID.
func Has(fields []Field, id uint16) bool {
	return slices.ContainsFunc(fields, func(f Field) bool { return f.ID == id })
}

// Strip removes the records with the given IDs from an encoded block.
// A block that cannot be parsed is returned unchanged.
func Strip(b []byte, ids ...uint16) []byte {
	fields, err := Parse(b)
	if err != nil {
		return b
	}
	kept := Without(fields, ids...)
	if len(kept) == len(fields) {
		return b
	}
	out, err := Encode(kept)
	if err != nil {
		return b
	}
	return out
}
