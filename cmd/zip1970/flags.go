package main

import (
	"log/slog"
	"regexp"
	"time"

	"github.com/spf13/pflag"

	"github.com/meigma/zip1970"
)

// timeValue is a pflag.Value holding an optional ISO-8601 local date-time.
type timeValue struct {
	t *time.Time
}

var _ pflag.Value = (*timeValue)(nil)

func (v *timeValue) String() string {
	if v.t == nil {
		return ""
	}
	return v.t.Format("2006-01-02T15:04:05.999999999")
}

func (v *timeValue) Set(s string) error {
	t, err := zip1970.ParseTime(s)
	if err != nil {
		return err
	}
	v.t = &t
	return nil
}

func (v *timeValue) Type() string { return "timestamp" }

// patternValue is a pflag.Value holding an optional whole-name regexp.
type patternValue struct {
	re *regexp.Regexp
}

var _ pflag.Value = (*patternValue)(nil)

func (v *patternValue) String() string {
	if v.re == nil {
		return ""
	}
	return v.re.String()
}

func (v *patternValue) Set(s string) error {
	re, err := zip1970.CompilePattern(s)
	if err != nil {
		return err
	}
	v.re = re
	return nil
}

func (v *patternValue) Type() string { return "regexp" }

// levelValue is a pflag.Value for slog levels.
type levelValue struct {
	level slog.Level
}

var _ pflag.Value = (*levelValue)(nil)

func (v *levelValue) String() string { return v.level.String() }

func (v *levelValue) Set(s string) error {
	return v.level.UnmarshalText([]byte(s))
}

func (v *levelValue) Type() string { return "level" }
