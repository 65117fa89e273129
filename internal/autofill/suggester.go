// Package autofill suggests exercise names the user has logged before.
package autofill

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/2beens/liftlog/internal/cache"
	"github.com/2beens/liftlog/internal/workouts"

	log "github.com/sirupsen/logrus"
)

const (
	// Freshness is how long a stored name list is trusted.
	Freshness      = 24 * time.Hour
	MaxSuggestions = 5

	slotKeyPrefix = "exercise-names||"
)

// WorkoutLister is the part of workouts.Repo the suggester reads names from.
type WorkoutLister interface {
	ListWorkouts(ctx context.Context, limit int) ([]workouts.Workout, error)
}

// slot is the stored form of the name list.
type slot struct {
	Names []string `json:"names"`
	// Timestamp is unix millis of the write.
	Timestamp int64 `json:"timestamp"`
}

// Suggester keeps the exercise names of one user. The list lives in a cache
// slot shared by all server instances and is rebuilt from the user's
// workouts when the slot is missing or stale.
type Suggester struct {
	cache  cache.Cache
	lister WorkoutLister
	key    string
	now    func() time.Time

	mutex sync.Mutex
	names []string
}

// NewSuggester builds a suggester for userID. lister may be nil when no
// backend is configured; only cached names are served then.
func NewSuggester(c cache.Cache, lister WorkoutLister, userID string) *Suggester {
	return &Suggester{
		cache:  c,
		lister: lister,
		key:    slotKeyPrefix + userID,
		now:    time.Now,
		names:  []string{},
	}
}

// cached reads the slot, deleting it when it is stale or unreadable.
func (s *Suggester) cached(ctx context.Context) []string {
	raw, err := s.cache.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warnf("autofill: read slot [%s]: %s", s.key, err)
		}
		return nil
	}

	var stored slot
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Warnf("autofill: corrupt slot [%s]: %s", s.key, err)
		s.drop(ctx)
		return nil
	}
	if s.now().Sub(time.UnixMilli(stored.Timestamp)) > Freshness {
		s.drop(ctx)
		return nil
	}
	return stored.Names
}

func (s *Suggester) drop(ctx context.Context) {
	if err := s.cache.Delete(ctx, s.key); err != nil {
		log.Warnf("autofill: delete slot [%s]: %s", s.key, err)
	}
}

func (s *Suggester) store(ctx context.Context, names []string) {
	raw, err := json.Marshal(slot{Names: names, Timestamp: s.now().UnixMilli()})
	if err != nil {
		log.Errorf("autofill: marshal slot: %s", err)
		return
	}
	if err := s.cache.Set(ctx, s.key, raw, Freshness); err != nil {
		log.Warnf("autofill: write slot [%s]: %s", s.key, err)
	}
}

// Load returns the known names, sorted. A fresh slot is used as is,
// otherwise the names are collected again from all workouts.
func (s *Suggester) Load(ctx context.Context) []string {
	if names := s.cached(ctx); len(names) > 0 {
		s.mutex.Lock()
		s.names = names
		s.mutex.Unlock()
		return slices.Clone(names)
	}
	return s.Refresh(ctx)
}

// Refresh rebuilds the names from all workouts and writes them back. When
// the workouts cannot be listed the current names are kept.
func (s *Suggester) Refresh(ctx context.Context) []string {
	if s.lister == nil {
		return s.Names()
	}

	list, err := s.lister.ListWorkouts(ctx, 0)
	if err != nil {
		log.Warnf("autofill: list workouts: %s", err)
		return s.Names()
	}

	names := uniqueSorted(workouts.ExerciseNames(list))
	s.mutex.Lock()
	s.names = names
	s.mutex.Unlock()
	s.store(ctx, names)
	return slices.Clone(names)
}

func (s *Suggester) Names() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.names)
}

// Suggestions returns up to MaxSuggestions known names containing input,
// ignoring case. Blank input gives nothing.
func (s *Suggester) Suggestions(input string) []string {
	input = strings.ToLower(strings.TrimSpace(input))
	suggestions := []string{}
	if input == "" {
		return suggestions
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, name := range s.names {
		if strings.Contains(strings.ToLower(name), input) {
			suggestions = append(suggestions, name)
			if len(suggestions) == MaxSuggestions {
				break
			}
		}
	}
	return suggestions
}

// AddName records a freshly logged name and writes the list back. The
// stored list is loaded first so names of other instances are kept.
func (s *Suggester) AddName(ctx context.Context, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	known := s.Load(ctx)
	if slices.Contains(known, name) {
		return
	}
	names := uniqueSorted(append(known, name))
	s.mutex.Lock()
	s.names = names
	s.mutex.Unlock()

	s.store(ctx, names)
}

func uniqueSorted(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
