// Package date provides day- and month-granularity calendar values used
// throughout the ledger. Dates are plain values: comparable, immutable,
// and serialized as ISO strings.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format is the canonical string form of a Date.
const Format = "2006-01-02"

// readFormat is permissive on input and accepts single-digit month/day.
const readFormat = "2006-1-2"

// MonthFormat is the canonical string form of a Month key.
const MonthFormat = "2006-01"

// Date represents a calendar day with no time-of-day or zone.
// The zero value means "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month, and day.
// Out-of-range components roll over the way time.Date does.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// FromTime truncates a time.Time to its calendar day.
func FromTime(t time.Time) Date {
	return New(t.Date())
}

// Today returns the current date.
func Today() Date { return FromTime(time.Now()) }

// Parse parses a Date from its ISO form. It is lenient about zero
// padding and accepts "2025-7-1" as well as "2025-07-01".
func Parse(str string) (Date, error) {
	t, err := time.Parse(readFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", str, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants.
func MustParse(str string) Date {
	d, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// Year returns the calendar year.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// IsZero reports whether d is the zero "no date" value.
func (d Date) IsZero() bool { return d == Date{} }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// AddDays returns d shifted by the given number of days.
func (d Date) AddDays(n int) Date { return New(d.y, d.m, d.d+n) }

// AddMonths returns d shifted by the given number of months, with the
// day clamped to the length of the target month: 2025-01-31 plus one
// month is 2025-02-28.
func (d Date) AddMonths(n int) Date {
	t := time.Date(d.y, d.m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.d
	if last := daysIn(t.Year(), t.Month()); day > last {
		day = last
	}
	return Date{t.Year(), t.Month(), day}
}

// MonthKey returns the Month containing d.
func (d Date) MonthKey() Month { return Month{d.y, d.m} }

// String returns the ISO form, or the empty string for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(Format)
}

// MarshalJSON encodes the date as an ISO string, the zero value as "".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes an ISO string; "" and null decode to the zero
// value.
func (d *Date) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Month is a year-month key. The zero value means "no month".
type Month struct {
	y int
	m time.Month
}

// NewMonth returns a normalized Month, rolling over out-of-range month
// numbers.
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{t.Year(), t.Month()}
}

// ParseMonth parses a Month from its "2006-01" form.
func ParseMonth(str string) (Month, error) {
	t, err := time.Parse(MonthFormat, str)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", str, err)
	}
	return Month{t.Year(), t.Month()}, nil
}

// MustParseMonth is like ParseMonth but panics on error.
func MustParseMonth(str string) Month {
	m, err := ParseMonth(str)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// Year returns the calendar year of the month.
func (mo Month) Year() int { return mo.y }

// Month returns the month number.
func (mo Month) Month() time.Month { return mo.m }

// IsZero reports whether mo is the zero value.
func (mo Month) IsZero() bool { return mo == Month{} }

// Before reports whether mo is before x.
func (mo Month) Before(x Month) bool {
	return mo.y < x.y || (mo.y == x.y && mo.m < x.m)
}

// Add returns mo shifted by the given number of months.
func (mo Month) Add(n int) Month {
	return NewMonth(mo.y, mo.m+time.Month(n))
}

// First returns the first day of the month.
func (mo Month) First() Date { return Date{mo.y, mo.m, 1} }

// Last returns the last day of the month.
func (mo Month) Last() Date { return Date{mo.y, mo.m, daysIn(mo.y, mo.m)} }

// Contains reports whether d falls inside the month.
func (mo Month) Contains(d Date) bool { return d.MonthKey() == mo }

// String returns the "2006-01" form, or the empty string for the zero
// value.
func (mo Month) String() string {
	if mo.IsZero() {
		return ""
	}
	return time.Date(mo.y, mo.m, 1, 0, 0, 0, 0, time.UTC).Format(MonthFormat)
}

// MarshalJSON encodes the month as its "2006-01" string.
func (mo Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(mo.String())
}

// UnmarshalJSON decodes a "2006-01" string; "" and null decode to the
// zero value.
func (mo *Month) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*mo = Month{}
		return nil
	}
	parsed, err := ParseMonth(str)
	if err != nil {
		return err
	}
	*mo = parsed
	return nil
}

var _ json.Marshaler = (*Month)(nil)
var _ json.Unmarshaler = (*Month)(nil)
