package zip1970

import (
	"errors"

	"github.com/meigma/zip1970/internal/extra"
)

// Sentinel errors for archive transformation.
var (
	// ErrInvalidArchive is returned when the input is not a readable zip archive.
	ErrInvalidArchive = errors.New("zip1970: invalid archive")

	// ErrInvalidPattern is returned when an include or exclude pattern does not compile.
	ErrInvalidPattern = errors.New("zip1970: invalid pattern")

	// ErrInvalidTime is returned when a timestamp is not an ISO-8601 local date-time.
	ErrInvalidTime = errors.New("zip1970: invalid time")

	// ErrMalformedExtra is returned when an entry's extra field block is truncated.
	ErrMalformedExtra = extra.ErrMalformed
)
