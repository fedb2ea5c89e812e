// Package roc converts between Gregorian dates and the Republic of China
// (Minguo) calendar used for display and ticket fragments. ROC years are
// Gregorian years minus a fixed era offset of 1911: Gregorian 2025 is ROC
// year 114.
package roc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lendbook/internal/date"
)

// EraOffset is the difference between a Gregorian year and its ROC year.
const EraOffset = 1911

// FormatCompact renders a date in the separator-free ROC form used in
// tickets and simple input fields: era year followed by zero-padded
// month and day, e.g. 2025-07-15 -> "1140715". The zero date renders as
// the empty string.
func FormatCompact(d date.Date) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d%02d%02d", d.Year()-EraOffset, int(d.Month()), d.Day())
}

// FormatDisplay renders a date in the slash-separated ROC form used in
// export columns, e.g. 2025-07-15 -> "114/07/15".
func FormatDisplay(d date.Date) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%02d/%02d", d.Year()-EraOffset, int(d.Month()), d.Day())
}

// ParseCompact parses the strict separator-free ROC form: exactly six
// digits (two-digit era year) or seven digits (three-digit era year),
// with the last four digits as zero-padded month and day. The month
// must be 1-12 and the day must exist in the resulting calendar month,
// so "1140230" is rejected. Returns false on any failure.
func ParseCompact(raw string) (date.Date, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 6 && len(raw) != 7 {
		return date.Date{}, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return date.Date{}, false
		}
	}
	era, err := strconv.Atoi(raw[:len(raw)-4])
	if err != nil || era < 1 {
		return date.Date{}, false
	}
	month, _ := strconv.Atoi(raw[len(raw)-4 : len(raw)-2])
	day, _ := strconv.Atoi(raw[len(raw)-2:])
	return makeDate(era+EraOffset, month, day)
}

// ParseLoose parses free-text date input on a best-effort basis, for
// bulk import paths where rejecting a row outright would lose more data
// than a wrong-but-plausible date. It accepts the strict compact form,
// or year/month/day components split by "/", ".", "-" or "~". A leading
// component of 1911 or more is taken as a Gregorian year, anything
// smaller as an ROC era year. Unparseable input falls back to today.
func ParseLoose(raw string, today date.Date) date.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return today
	}
	if d, ok := ParseCompact(raw); ok {
		return d
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == '.' || r == '-' || r == '~'
	})
	if len(parts) < 3 {
		return today
	}
	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return today
		}
		nums[i] = n
	}
	year := nums[0]
	if year < EraOffset {
		year += EraOffset
	}
	if d, ok := makeDate(year, nums[1], nums[2]); ok {
		return d
	}
	return today
}

// makeDate validates that year/month/day name a real calendar day and
// returns it. The round-trip through time.Date rejects days that only
// exist by normalization, like April 31.
func makeDate(year, month, day int) (date.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return date.Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return date.Date{}, false
	}
	return date.New(year, time.Month(month), day), true
}
