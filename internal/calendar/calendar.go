// Package calendar lays saved workouts out on year, month and week grids and
// summarizes the muscles they trained.
package calendar

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/dates"
	"github.com/2beens/liftlog/internal/muscles"
	"github.com/2beens/liftlog/internal/workouts"
)

type Kind string

const (
	KindYear  Kind = "year"
	KindMonth Kind = "month"
	KindWeek  Kind = "week"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindYear, KindMonth, KindWeek:
		return k, nil
	case "":
		return KindMonth, nil
	default:
		return "", fmt.Errorf("unknown calendar view [%s]", s)
	}
}

// Source lists saved workouts dated within [from, to].
type Source interface {
	WorkoutsBetween(ctx context.Context, from, to string) []workouts.Workout
}

// Day is one cell of a view. Padding cells have an empty Date.
type Day struct {
	Date       string   `json:"date,omitempty"`
	HasWorkout bool     `json:"hasWorkout"`
	WorkoutIDs []string `json:"workoutIds,omitempty"`
	Types      []string `json:"types,omitempty"`
}

type View struct {
	Kind  Kind   `json:"kind"`
	Date  string `json:"date"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	// Weeks are Sunday-start rows of seven days.
	Weeks       [][]Day `json:"weeks"`
	WorkoutDays int     `json:"workoutDays"`
	Workouts    int     `json:"workouts"`
}

type Calendar struct {
	source Source
	table  *muscles.Table
	loc    *time.Location
}

// New builds a calendar over source. A nil table means the default muscle
// mapping, a nil loc means time.Local.
func New(source Source, table *muscles.Table, loc *time.Location) *Calendar {
	if table == nil {
		table = muscles.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{
		source: source,
		table:  table,
		loc:    loc,
	}
}

func (c *Calendar) rangeOf(kind Kind, day time.Time) (dates.Range, [][]dates.Cell, string) {
	switch kind {
	case KindYear:
		return dates.YearRange(day), dates.YearGrid(day.Year(), c.loc), fmt.Sprintf("%d", day.Year())
	case KindWeek:
		r := dates.WeekRange(day)
		week := make([]dates.Cell, 0, 7)
		for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
			week = append(week, dates.Cell{Date: d, Key: dates.LocalDateStringIn(d, c.loc)})
		}
		return r, [][]dates.Cell{week}, r.String()
	default:
		return dates.MonthRange(day), dates.MonthGrid(day.Year(), day.Month(), c.loc), day.Format("January 2006")
	}
}

// View returns the year, month or week containing date, marking the days
// that have saved workouts.
func (c *Calendar) View(ctx context.Context, kind Kind, date string) (View, error) {
	day, err := dates.ParseLocalDateIn(date, c.loc)
	if err != nil {
		return View{}, err
	}

	r, grid, label := c.rangeOf(kind, day)
	from := dates.LocalDateStringIn(r.Start, c.loc)
	to := dates.LocalDateStringIn(r.End, c.loc)
	byDate := groupByDate(c.source.WorkoutsBetween(ctx, from, to))

	view := View{
		Kind:  kind,
		Date:  date,
		From:  from,
		To:    to,
		Label: label,
		Weeks: make([][]Day, 0, len(grid)),
	}
	for _, week := range grid {
		row := make([]Day, 0, len(week))
		for _, cell := range week {
			if cell.IsPadding() {
				row = append(row, Day{})
				continue
			}
			d := Day{Date: cell.Key}
			for _, w := range byDate[cell.Key] {
				d.HasWorkout = true
				d.WorkoutIDs = append(d.WorkoutIDs, w.ID)
				if t := w.Type.String(); t != "" && !slices.Contains(d.Types, t) {
					d.Types = append(d.Types, t)
				}
				view.Workouts++
			}
			if d.HasWorkout {
				view.WorkoutDays++
			}
			row = append(row, d)
		}
		view.Weeks = append(view.Weeks, row)
	}
	return view, nil
}

func groupByDate(list []workouts.Workout) map[string][]workouts.Workout {
	byDate := make(map[string][]workouts.Workout)
	for _, w := range list {
		byDate[w.Date] = append(byDate[w.Date], w)
	}
	// oldest first within a day
	for _, ws := range byDate {
		slices.SortStableFunc(ws, func(a, b workouts.Workout) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
	return byDate
}

// MuscleSummary is the muscle picture of a set of exercises.
type MuscleSummary struct {
	Exercises  int                       `json:"exercises"`
	Hits       map[string]int            `json:"hits"`
	Intensity  muscles.Intensity         `json:"intensity"`
	Brightness []muscles.BrightnessGroup `json:"brightness"`
}

func (c *Calendar) summarize(list []workouts.Workout) MuscleSummary {
	var names []string
	for _, w := range list {
		names = append(names, muscles.NamesOf(w.Exercises)...)
	}
	hits := c.table.HitCounts(names)
	return MuscleSummary{
		Exercises:  len(names),
		Hits:       hits,
		Intensity:  muscles.SplitByIntensity(hits),
		Brightness: muscles.BrightnessGroups(hits),
	}
}

type DaySummary struct {
	Date     string             `json:"date"`
	Workouts []workouts.Workout `json:"workouts"`
	MuscleSummary
}

// DaySummary collects all workouts of one day and the muscles they hit.
func (c *Calendar) DaySummary(ctx context.Context, date string) (DaySummary, error) {
	if _, err := dates.ParseLocalDateIn(date, c.loc); err != nil {
		return DaySummary{}, err
	}

	list := c.source.WorkoutsBetween(ctx, date, date)
	slices.SortStableFunc(list, func(a, b workouts.Workout) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return DaySummary{
		Date:          date,
		Workouts:      list,
		MuscleSummary: c.summarize(list),
	}, nil
}

type Frequency struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Workouts int    `json:"workouts"`
	MuscleSummary
}

// MuscleFrequency counts muscle hits over [from, to]. Empty bounds default
// to the week containing today.
func (c *Calendar) MuscleFrequency(ctx context.Context, from, to string) (Frequency, error) {
	if from == "" || to == "" {
		week := dates.WeekRange(time.Now().In(c.loc))
		if from == "" {
			from = dates.LocalDateStringIn(week.Start, c.loc)
		}
		if to == "" {
			to = dates.LocalDateStringIn(week.End, c.loc)
		}
	}

	start, err := dates.ParseLocalDateIn(from, c.loc)
	if err != nil {
		return Frequency{}, err
	}
	end, err := dates.ParseLocalDateIn(to, c.loc)
	if err != nil {
		return Frequency{}, err
	}
	if end.Before(start) {
		return Frequency{}, fmt.Errorf("invalid range: [%s] is after [%s]", from, to)
	}

	list := c.source.WorkoutsBetween(ctx, from, to)
	return Frequency{
		From:          from,
		To:            to,
		Workouts:      len(list),
		MuscleSummary: c.summarize(list),
	}, nil
}
