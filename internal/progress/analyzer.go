package progress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/dates"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"

	"go.opentelemetry.io/otel/attribute"
)

// Source lists saved workouts dated within [from, to].
type Source interface {
	WorkoutsBetween(ctx context.Context, from, to string) []workouts.Workout
}

// DayStats aggregates every logged entry of one exercise on one workout date.
type DayStats struct {
	Date      string  `json:"date"`
	Entries   int     `json:"entries"`
	Sets      int     `json:"sets"`
	Reps      int     `json:"reps"`
	MaxWeight float64 `json:"maxWeight"`
	AvgWeight float64 `json:"avgWeight"`
	// Volume is the sum of sets * reps * weight, a missing sets count taken as one set
	Volume float64 `json:"volume"`
}

type ExerciseProgress struct {
	Exercise string     `json:"exercise"`
	From     string     `json:"from"`
	To       string     `json:"to"`
	Days     []DayStats `json:"days"`
	// BestDate is the date of the heaviest logged weight, empty when no weight was logged
	BestDate   string  `json:"bestDate,omitempty"`
	BestWeight float64 `json:"bestWeight"`
}

type Analyzer struct {
	source Source
	loc    *time.Location
}

func NewAnalyzer(source Source, loc *time.Location) *Analyzer {
	if loc == nil {
		loc = time.Local
	}
	return &Analyzer{
		source: source,
		loc:    loc,
	}
}

// ExerciseProgress walks the workouts within [from, to] and groups the
// entries of the named exercise per workout date, oldest first. Names match
// case-insensitively. An empty bound defaults to the current year's edge.
func (a *Analyzer) ExerciseProgress(ctx context.Context, exercise, from, to string) (_ *ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.progress.exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", exercise))

	exercise = strings.TrimSpace(exercise)
	if exercise == "" {
		return nil, errors.New("exercise name empty")
	}

	if from == "" || to == "" {
		year := dates.YearRange(time.Now().In(a.loc))
		if from == "" {
			from = dates.LocalDateStringIn(year.Start, a.loc)
		}
		if to == "" {
			to = dates.LocalDateStringIn(year.End, a.loc)
		}
	}
	start, err := dates.ParseLocalDateIn(from, a.loc)
	if err != nil {
		return nil, err
	}
	end, err := dates.ParseLocalDateIn(to, a.loc)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: [%s] is after [%s]", from, to)
	}

	byDate := make(map[string]*DayStats)
	weightSums := make(map[string]float64)
	weighted := make(map[string]int)
	for _, workout := range a.source.WorkoutsBetween(ctx, from, to) {
		for _, ex := range workout.Exercises {
			if !strings.EqualFold(strings.TrimSpace(ex.Name), exercise) {
				continue
			}

			day, ok := byDate[workout.Date]
			if !ok {
				day = &DayStats{Date: workout.Date}
				byDate[workout.Date] = day
			}
			day.Entries++

			sets := 1
			if ex.Sets != nil {
				sets = *ex.Sets
			}
			day.Sets += sets
			reps := 0
			if ex.Reps != nil {
				reps = *ex.Reps
			}
			day.Reps += sets * reps

			if ex.Weight != nil {
				weight := *ex.Weight
				day.MaxWeight = max(day.MaxWeight, weight)
				day.Volume += float64(sets*reps) * weight
				weightSums[workout.Date] += weight
				weighted[workout.Date]++
			}
		}
	}

	result := &ExerciseProgress{
		Exercise: exercise,
		From:     from,
		To:       to,
		Days:     make([]DayStats, 0, len(byDate)),
	}
	for date, day := range byDate {
		if weighted[date] > 0 {
			day.AvgWeight = weightSums[date] / float64(weighted[date])
		}
		result.Days = append(result.Days, *day)
	}
	// canonical dates sort chronologically as strings
	slices.SortFunc(result.Days, func(x, y DayStats) int {
		return strings.Compare(x.Date, y.Date)
	})

	for _, day := range result.Days {
		if day.MaxWeight > result.BestWeight {
			result.BestWeight = day.MaxWeight
			result.BestDate = day.Date
		}
	}

	return result, nil
}
