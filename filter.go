package zip1970

import (
	"fmt"
	"regexp"
)

// Filter selects which entries receive timestamp overrides.
//
// An entry passes when it matches the include pattern (if any) and does not
// match the exclude pattern (if any). Patterns must match the whole entry
// name, not a substring. The zero Filter passes every entry.
type Filter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// NewFilter compiles include and exclude patterns. An empty pattern is absent.
func NewFilter(include, exclude string) (Filter, error) {
	var f Filter
	var err error
	if include != "" {
		if f.include, err = CompilePattern(include); err != nil {
			return Filter{}, err
		}
	}
	if exclude != "" {
		if f.exclude, err = CompilePattern(exclude); err != nil {
			return Filter{}, err
		}
	}
	return f, nil
}

// FilterOf builds a Filter from already compiled whole-name patterns.
// Either may be nil. Use CompilePattern to anchor a pattern.
func FilterOf(include, exclude *regexp.Regexp) Filter {
	return Filter{include: include, exclude: exclude}
}

// CompilePattern compiles expr anchored so that it must match an entire name.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(expr); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, expr, err)
	}
	return regexp.MustCompile(`^(?:` + expr + `)$`), nil
}

// Match reports whether name passes the filter.
func (f Filter) Match(name string) bool {
	if f.include != nil && !f.include.MatchString(name) {
		return false
	}
	if f.exclude != nil && f.exclude.MatchString(name) {
		return false
	}
	return true
}

// String describes the filter for logging.
func (f Filter) String() string {
	return fmt.Sprintf("include=%s exclude=%s", patternString(f.include), patternString(f.exclude))
}

func patternString(re *regexp.Regexp) string {
	if re == nil {
		return "<none>"
	}
	return re.String()
}
