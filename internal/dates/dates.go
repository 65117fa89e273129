// Package dates converts between calendar days and the canonical YYYY-MM-DD
// strings workouts are stored with. A workout date is a local calendar day,
// never a UTC instant, so every helper works on calendar fields of a location.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// LocalDateString formats t as YYYY-MM-DD using the calendar fields of t in time.Local.
func LocalDateString(t time.Time) string {
	return LocalDateStringIn(t, time.Local)
}

func LocalDateStringIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// Today returns the canonical date string of the current local day.
func Today() string {
	return LocalDateString(time.Now())
}

// ParseLocalDate parses YYYY-MM-DD as midnight of that day in time.Local.
// time.Parse would yield UTC midnight, which shows up as the previous day
// west of Greenwich.
func ParseLocalDate(s string) (time.Time, error) {
	return ParseLocalDateIn(s, time.Local)
}

func ParseLocalDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date [%s]: expected YYYY-MM-DD", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date [%s] year: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date [%s] month: %w", s, err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date [%s] day: %w", s, err)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid date [%s]: month out of range", s)
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, fmt.Errorf("invalid date [%s]: day out of range", s)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

// IsValid reports whether s is a well-formed canonical date.
func IsValid(s string) bool {
	_, err := ParseLocalDate(s)
	return err == nil
}

// StartOfDay truncates t to local midnight, keeping t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
