package zip1970

import "log/slog"

// Option configures a Transformer.
type Option func(*Transformer)

// WithFilter restricts overrides to entries that pass f.
// Entries that fail the filter are still copied, with their original timestamps.
func WithFilter(f Filter) Option {
	return func(t *Transformer) {
		t.filter = f
	}
}

// WithOverrides sets the timestamps applied to matching entries.
func WithOverrides(o Overrides) Option {
	return func(t *Transformer) {
		t.overrides = o
	}
}

// WithLogger sets a custom logger. Entries are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithBufferSize sets the copy buffer size (default: 32 KiB).
// Values <= 0 keep the default.
func WithBufferSize(n int) Option {
	return func(t *Transformer) {
		if n > 0 {
			t.bufSize = n
		}
	}
}
