// Package muscles resolves exercise names to the muscle groups they train
// and aggregates those groups over a set of logged exercises.
package muscles

import (
	"sort"
	"strings"
)

// minSubstringQuery is the shortest query allowed to resolve through
// substring matching.
const minSubstringQuery = 3

// Table is an exercise name -> muscle groups lookup. The zero value is not
// usable, use NewTable or Default.
type Table struct {
	entries map[string][]string
	// keys sorted, so fallback matching does not depend on map iteration order
	keys []string
}

var defaultTable = NewTable(exerciseToMuscles)

// Default returns the built-in table.
func Default() *Table {
	return defaultTable
}

func NewTable(entries map[string][]string) *Table {
	t := &Table{
		entries: make(map[string][]string, len(entries)),
		keys:    make([]string, 0, len(entries)),
	}
	for name, groups := range entries {
		t.entries[name] = append([]string(nil), groups...)
		t.keys = append(t.keys, name)
	}
	sort.Strings(t.keys)
	return t
}

// For returns the muscle groups of an exercise. Resolution order:
//  1. exact key
//  2. case-insensitive key
//  3. plural/singular: query+"s" is a key, or key+"s" is the query
//  4. a key containing the query, for queries of at least 3 characters
//
// Step 4 only goes one way: "Calf Raise" matches "Standing Calf Raise",
// but "Standing Calf Raise" never resolves through "Calf Raise".
func (t *Table) For(name string) []string {
	if groups, ok := t.entries[name]; ok {
		return clone(groups)
	}

	lowerName := strings.ToLower(strings.TrimSpace(name))
	if lowerName == "" {
		return []string{}
	}

	for _, key := range t.keys {
		if strings.ToLower(key) == lowerName {
			return clone(t.entries[key])
		}
	}

	for _, key := range t.keys {
		lowerKey := strings.ToLower(key)
		if lowerName == lowerKey+"s" || lowerKey == lowerName+"s" {
			return clone(t.entries[key])
		}
	}

	if len(lowerName) >= minSubstringQuery {
		for _, key := range t.keys {
			if strings.Contains(strings.ToLower(key), lowerName) {
				return clone(t.entries[key])
			}
		}
	}

	return []string{}
}

// Names returns all exercise names known to the table, sorted.
func (t *Table) Names() []string {
	return append([]string(nil), t.keys...)
}

// For resolves name against the default table.
func For(name string) []string {
	return defaultTable.For(name)
}

// ExerciseNames returns the default table's exercise names, sorted.
func ExerciseNames() []string {
	return defaultTable.Names()
}

func clone(s []string) []string {
	return append([]string{}, s...)
}
