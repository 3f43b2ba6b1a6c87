package zip1970

import (
	"fmt"
	"time"

	"github.com/meigma/zip1970/internal/extra"
)

// Overrides holds replacement timestamps. A nil field leaves the entry's
// original value untouched.
type Overrides struct {
	Created  *time.Time
	Modified *time.Time
	Accessed *time.Time
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o.Created == nil && o.Modified == nil && o.Accessed == nil
}

// Apply returns t with every set override replacing the matching field.
func (o Overrides) Apply(t Times) Times {
	if o.Created != nil {
		t.Created = *o.Created
	}
	if o.Modified != nil {
		t.Modified = *o.Modified
	}
	if o.Accessed != nil {
		t.Accessed = *o.Accessed
	}
	return t
}

// Validate reports an error wrapping ErrInvalidTime if a set override cannot
// be recorded in a zip extra field. Recordable times lie after
// 1601-01-01T00:00:00 UTC; the zero time.Time is not one of them.
func (o Overrides) Validate() error {
	for _, f := range []struct {
		name string
		t    *time.Time
	}{
		{"created", o.Created},
		{"modified", o.Modified},
		{"accessed", o.Accessed},
	} {
		if f.t != nil && !extra.Encodable(*f.t) {
			return fmt.Errorf("%w: %s time %s is outside the recordable range", ErrInvalidTime, f.name, f.t.UTC().Format(time.RFC3339Nano))
		}
	}
	return nil
}

// Layouts accepted by ParseTime. Fractional seconds are accepted after the
// seconds field without being listed.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTime parses an ISO-8601 local date-time such as 1970-01-01T00:00:00.
// The value carries no zone and is interpreted as UTC, so archives built from
// the same arguments are identical wherever they are produced. Times at or
// before 1601-01-01T00:00:00 cannot be recorded and are rejected.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if !extra.Encodable(t) {
			return time.Time{}, fmt.Errorf("%w: %q: must be after 1601-01-01T00:00:00", ErrInvalidTime, s)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q: want YYYY-MM-DDTHH:MM[:SS[.fraction]]", ErrInvalidTime, s)
}
