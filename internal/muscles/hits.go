package muscles

import (
	"math"
	"sort"
)

// Named is anything carrying an exercise name, e.g. a logged exercise or a
// plan template entry.
type Named interface {
	ExerciseName() string
}

// NamesOf extracts the exercise names of the given exercises.
func NamesOf[E Named](exercises []E) []string {
	names := make([]string, 0, len(exercises))
	for _, e := range exercises {
		names = append(names, e.ExerciseName())
	}
	return names
}

// HitCounts counts, for every muscle group, how many of the named exercises train it.
func (t *Table) HitCounts(names []string) map[string]int {
	counts := make(map[string]int)
	for _, name := range names {
		for _, m := range t.For(name) {
			counts[m]++
		}
	}
	return counts
}

// FromExercises returns the distinct muscle groups trained by the named
// exercises, in first-seen order.
func (t *Table) FromExercises(names []string) []string {
	seen := make(map[string]bool)
	groups := []string{}
	for _, name := range names {
		for _, m := range t.For(name) {
			if !seen[m] {
				seen[m] = true
				groups = append(groups, m)
			}
		}
	}
	return groups
}

// HitCounts tallies muscle groups of the exercises against the default table.
func HitCounts[E Named](exercises []E) map[string]int {
	return defaultTable.HitCounts(NamesOf(exercises))
}

func FromExercises[E Named](exercises []E) []string {
	return defaultTable.FromExercises(NamesOf(exercises))
}

// Intensity splits muscles hit once from muscles hit two or more times.
type Intensity struct {
	Single []string `json:"single"`
	Multi  []string `json:"multi"`
}

func SplitByIntensity(counts map[string]int) Intensity {
	in := Intensity{
		Single: []string{},
		Multi:  []string{},
	}
	for m, c := range counts {
		switch {
		case c >= 2:
			in.Multi = append(in.Multi, m)
		case c == 1:
			in.Single = append(in.Single, m)
		}
	}
	sort.Strings(in.Single)
	sort.Strings(in.Multi)
	return in
}

// BrightnessGroup holds the muscles drawn at the same brightness percentage.
type BrightnessGroup struct {
	Brightness int      `json:"brightness"`
	Muscles    []string `json:"muscles"`
}

const (
	brightnessStep = 5
	minBrightness  = 5
)

// BrightnessGroups scales each hit count against the largest one, rounds to
// the nearest 5% (never below 5%) and groups muscles sharing a level,
// brightest first.
func BrightnessGroups(counts map[string]int) []BrightnessGroup {
	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c)
	}
	if maxCount == 0 {
		return []BrightnessGroup{}
	}

	byLevel := make(map[int][]string)
	for m, c := range counts {
		if c <= 0 {
			continue
		}
		pct := float64(c) / float64(maxCount) * 100
		level := int(math.Round(pct/brightnessStep)) * brightnessStep
		level = max(minBrightness, level)
		byLevel[level] = append(byLevel[level], m)
	}

	groups := make([]BrightnessGroup, 0, len(byLevel))
	for level, ms := range byLevel {
		sort.Strings(ms)
		groups = append(groups, BrightnessGroup{Brightness: level, Muscles: ms})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Brightness > groups[j].Brightness
	})
	return groups
}
