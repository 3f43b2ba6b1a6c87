package extra

import "time"

const (
	dosMinYear = 1980
	dosMaxYear = 2107
)

// DOSTime encodes the wall clock of t as MS-DOS date and time.
// The location of t is used as-is; zip headers have no zone.
// Times outside 1980..2107 are clamped to the nearest representable value.
func DOSTime(t time.Time) (date, clock uint16) {
	switch {
	case t.Year() < dosMinYear:
		return 1<<5 | 1, 0
	case t.Year() > dosMaxYear:
		return uint16(dosMaxYear-dosMinYear)<<9 | 12<<5 | 31, 23<<11 | 59<<5 | 29
	}
	date = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-dosMinYear)<<9) //nolint:gosec // range checked
	clock = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)          //nolint:gosec // fits 16 bits
	return date, clock
}
