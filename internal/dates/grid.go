package dates

import "time"

// Cell is a single day of a calendar grid; padding cells have a zero Date.
type Cell struct {
	Date time.Time `json:"date"`
	Key  string    `json:"key,omitempty"`
}

func (c Cell) IsPadding() bool {
	return c.Date.IsZero()
}

// MonthGrid lays out a month as rows of 7 cells starting on Sunday. Days
// before the 1st and after the last day of the month are padding cells.
func MonthGrid(year int, month time.Month, loc *time.Location) [][]Cell {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return layoutWeeks(first, first.AddDate(0, 1, -1))
}

// YearGrid lays out a whole year the same way, one row per week. It backs
// the contribution-style activity view.
func YearGrid(year int, loc *time.Location) [][]Cell {
	if loc == nil {
		loc = time.Local
	}
	return layoutWeeks(
		time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		time.Date(year, time.December, 31, 0, 0, 0, 0, loc),
	)
}

func layoutWeeks(first, last time.Time) [][]Cell {
	var weeks [][]Cell
	week := make([]Cell, int(first.Weekday()), 7)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]Cell, 0, 7)
		}
		week = append(week, Cell{Date: d, Key: LocalDateStringIn(d, d.Location())})
	}
	for len(week) < 7 {
		week = append(week, Cell{})
	}
	return append(weeks, week)
}
