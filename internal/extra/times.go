package extra

import (
	"encoding/binary"
	"math"
	"slices"
	"time"
)

// Times holds the three timestamps an entry can carry.
// A zero time.Time means the field is absent.
type Times struct {
	Created  time.Time
	Modified time.Time
	Accessed time.Time
}

// IsZero reports whether no time is present.
func (t Times) IsZero() bool {
	return t.Created.IsZero() && t.Modified.IsZero() && t.Accessed.IsZero()
}

// Encodable reports whether ts can be stored in an NTFS field, the widest
// range of the supported formats: after 1601-01-01T00:00:00 UTC and before
// the year 30828.
func Encodable(ts time.Time) bool {
	_, ok := toNTFS(ts)
	return ok
}

const (
	extTimeMod    = 1 << 0
	extTimeAccess = 1 << 1
	extTimeCreate = 1 << 2

	ntfsTimeTag  = 0x0001
	ntfsTimeSize = 24

	// Seconds between 1601-01-01 and 1970-01-01, UTC.
	ntfsEpochOffset = 11644473600
	ntfsTicksPerSec = 10_000_000
)

// ReadTimes collects timestamps from the supported time fields.
// Later fields win, matching how archive readers resolve the modified time.
func ReadTimes(fields []Field) Times {
	var t Times
	for _, f := range fields {
		switch f.ID {
		case NTFSID:
			m, a, c, ok := parseNTFS(f.Data)
			if !ok {
				continue
			}
			setIf(&t.Modified, m)
			setIf(&t.Accessed, a)
			setIf(&t.Created, c)
		case ExtTimeID:
			if len(f.Data) < 1 {
				continue
			}
			flags := f.Data[0]
			rest := f.Data[1:]
			// Central headers carry only mtime even when flags list more.
			for _, bit := range []uint8{extTimeMod, extTimeAccess, extTimeCreate} {
				if flags&bit == 0 {
					continue
				}
				if len(rest) < 4 {
					break
				}
				ts := time.Unix(int64(binary.LittleEndian.Uint32(rest)), 0).UTC()
				rest = rest[4:]
				switch bit {
				case extTimeMod:
					t.Modified = ts
				case extTimeAccess:
					t.Accessed = ts
				case extTimeCreate:
					t.Created = ts
				}
			}
		case UnixID, InfoZipUnixID:
			if len(f.Data) < 8 {
				continue
			}
			t.Accessed = time.Unix(int64(binary.LittleEndian.Uint32(f.Data)), 0).UTC()
			t.Modified = time.Unix(int64(binary.LittleEndian.Uint32(f.Data[4:])), 0).UTC()
		}
	}
	return t
}

func setIf(dst *time.Time, v time.Time) {
	if !v.IsZero() {
		*dst = v
	}
}

// NTFS encodes t as an NTFS (0x000a) field. Absent times are written as 0.
// It reports false if no time is present or a present time cannot be
// represented.
func NTFS(t Times) (Field, bool) {
	if t.IsZero() {
		return Field{}, false
	}
	data := make([]byte, 0, 32)
	data = binary.LittleEndian.AppendUint32(data, 0) // reserved
	data = binary.LittleEndian.AppendUint16(data, ntfsTimeTag)
	data = binary.LittleEndian.AppendUint16(data, ntfsTimeSize)
	for _, ts := range []time.Time{t.Modified, t.Accessed, t.Created} {
		var ticks uint64
		if !ts.IsZero() {
			v, ok := toNTFS(ts)
			if !ok {
				return Field{}, false
			}
			ticks = v
		}
		data = binary.LittleEndian.AppendUint64(data, ticks)
	}
	return Field{ID: NTFSID, Data: data}, true
}

// ExtTime encodes t as an extended timestamp (0x5455) field.
// It reports false if nothing is present or a present time does not fit in
// an unsigned 32-bit Unix time.
func ExtTime(t Times) (Field, bool) {
	var flags uint8
	data := []byte{0}
	for _, e := range []struct {
		bit uint8
		ts  time.Time
	}{
		{extTimeMod, t.Modified},
		{extTimeAccess, t.Accessed},
		{extTimeCreate, t.Created},
	} {
		if e.ts.IsZero() {
			continue
		}
		u, ok := toUnix32(e.ts)
		if !ok {
			return Field{}, false
		}
		flags |= e.bit
		data = binary.LittleEndian.AppendUint32(data, u)
	}
	if flags == 0 {
		return Field{}, false
	}
	data[0] = flags
	return Field{ID: ExtTimeID, Data: data}, true
}

// PatchUnix returns a copy of a Unix (0x000d) or Info-ZIP Unix (0x5855) field
// with its access and modification times replaced by the present values in t.
// The uid/gid tail is kept. Other fields are returned unchanged.
//
// It reports false when a present access or modification time does not fit
// the field's 32-bit slots; the caller drops the field rather than leave a
// stale time behind.
func PatchUnix(f Field, t Times) (Field, bool) {
	if (f.ID != UnixID && f.ID != InfoZipUnixID) || len(f.Data) < 8 {
		return f, true
	}
	data := slices.Clone(f.Data)
	for _, e := range []struct {
		off int
		ts  time.Time
	}{
		{0, t.Accessed},
		{4, t.Modified},
	} {
		if e.ts.IsZero() {
			continue
		}
		u, ok := toUnix32(e.ts)
		if !ok {
			return Field{}, false
		}
		binary.LittleEndian.PutUint32(data[e.off:], u)
	}
	return Field{ID: f.ID, Data: data}, true
}

// FitsUnix32 reports whether every present time in t fits an unsigned 32-bit Unix time.
func FitsUnix32(t Times) bool {
	for _, ts := range []time.Time{t.Modified, t.Accessed, t.Created} {
		if ts.IsZero() {
			continue
		}
		if _, ok := toUnix32(ts); !ok {
			return false
		}
	}
	return true
}

func parseNTFS(b []byte) (m, a, c time.Time, ok bool) {
	if len(b) < 4 {
		return m, a, c, false
	}
	b = b[4:]
	for len(b) >= 4 {
		tag := binary.LittleEndian.Uint16(b)
		size := int(binary.LittleEndian.Uint16(b[2:]))
		b = b[4:]
		if size > len(b) {
			return m, a, c, false
		}
		if tag == ntfsTimeTag && size >= ntfsTimeSize {
			m = fromNTFS(binary.LittleEndian.Uint64(b))
			a = fromNTFS(binary.LittleEndian.Uint64(b[8:]))
			c = fromNTFS(binary.LittleEndian.Uint64(b[16:]))
			return m, a, c, true
		}
		b = b[size:]
	}
	return m, a, c, false
}

// fromNTFS converts 100ns ticks since 1601 to a time. 0 and values with the
// sign bit set mean "not available".
func fromNTFS(ticks uint64) time.Time {
	if ticks == 0 || ticks > math.MaxInt64 {
		return time.Time{}
	}
	secs := int64(ticks/ntfsTicksPerSec) - ntfsEpochOffset //nolint:gosec // bounded by MaxInt64 check
	nsecs := int64(ticks%ntfsTicksPerSec) * 100            //nolint:gosec // < 1e9
	return time.Unix(secs, nsecs).UTC()
}

// toNTFS converts t to 100ns ticks since 1601. Tick 0 is the "not available"
// sentinel, so 1601-01-01T00:00:00 itself is rejected.
func toNTFS(t time.Time) (uint64, bool) {
	secs := t.Unix() + ntfsEpochOffset
	if secs < 0 || secs > math.MaxInt64/ntfsTicksPerSec-1 {
		return 0, false
	}
	ticks := uint64(secs)*ntfsTicksPerSec + uint64(t.Nanosecond()/100) //nolint:gosec // range checked
	return ticks, ticks != 0
}

func toUnix32(t time.Time) (uint32, bool) {
	u := t.Unix()
	if u < 0 || u > math.MaxUint32 {
		return 0, false
	}
	return uint32(u), true
}
