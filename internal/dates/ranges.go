package dates

import (
	"fmt"
	"time"
)

// Range is an inclusive range of calendar days: Start and End are both
// midnights, End being the last day that belongs to the range.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether the calendar day of t falls within the range.
func (r Range) Contains(t time.Time) bool {
	day := StartOfDay(t.In(r.Start.Location()))
	return !day.Before(r.Start) && !day.After(r.End)
}

// Days returns the number of calendar days in the range.
func (r Range) Days() int {
	n := 0
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func (r Range) String() string {
	return FormatWeekRange(r.Start, r.End)
}

// WeekRange returns the Sunday-start week containing t.
func WeekRange(t time.Time) Range {
	day := StartOfDay(t)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return Range{
		Start: start,
		End:   start.AddDate(0, 0, 6),
	}
}

// WeeksInYear returns every Sunday-start week that overlaps the given year,
// in order. The first and last weeks may spill into neighbouring years.
func WeeksInYear(year int, loc *time.Location) []Range {
	if loc == nil {
		loc = time.Local
	}

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)

	var weeks []Range
	for w := WeekRange(jan1); !w.Start.After(dec31); w = WeekRange(w.Start.AddDate(0, 0, 7)) {
		weeks = append(weeks, w)
	}
	return weeks
}

// MonthRange returns the first..last day range of the month containing t.
func MonthRange(t time.Time) Range {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return Range{
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}
}

func MonthsInYear(year int, loc *time.Location) []Range {
	if loc == nil {
		loc = time.Local
	}
	months := make([]Range, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, MonthRange(time.Date(year, m, 1, 0, 0, 0, 0, loc)))
	}
	return months
}

// YearRange returns Jan 1 - Dec 31 of the year containing t.
func YearRange(t time.Time) Range {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return Range{
		Start: start,
		End:   time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location()),
	}
}

// FormatWeekRange renders a span like "Jan 5 - 11, 2025", naming the month
// once when both ends share it, e.g. "Jan 26 - Feb 1, 2025" otherwise and
// "Dec 28, 2025 - Jan 3, 2026" across a year boundary.
func FormatWeekRange(start, end time.Time) string {
	switch {
	case start.Year() != end.Year():
		return fmt.Sprintf("%s %d, %d - %s %d, %d",
			start.Format("Jan"), start.Day(), start.Year(),
			end.Format("Jan"), end.Day(), end.Year(),
		)
	case start.Month() != end.Month():
		return fmt.Sprintf("%s %d - %s %d, %d",
			start.Format("Jan"), start.Day(),
			end.Format("Jan"), end.Day(), end.Year(),
		)
	default:
		return fmt.Sprintf("%s %d - %d, %d",
			start.Format("Jan"), start.Day(), end.Day(), end.Year(),
		)
	}
}
