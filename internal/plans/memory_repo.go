package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"
)

// MemoryRepo keeps plans in process memory, for runs without a database.
type MemoryRepo struct {
	mutex  sync.Mutex
	nextID int
	plans  []WorkoutPlan
	now    func() time.Time
}

var _ Repo = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		now: time.Now,
	}
}

// copyPlan deep copies through JSON so callers never share maps or slices with the repo.
func copyPlan(plan WorkoutPlan) (WorkoutPlan, error) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return WorkoutPlan{}, err
	}
	var cp WorkoutPlan
	if err := json.Unmarshal(raw, &cp); err != nil {
		return WorkoutPlan{}, err
	}
	return cp, nil
}

func (r *MemoryRepo) ListPlans(_ context.Context) ([]WorkoutPlan, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	list := make([]WorkoutPlan, 0, len(r.plans))
	for _, plan := range slices.Backward(r.plans) {
		cp, err := copyPlan(plan)
		if err != nil {
			return nil, fmt.Errorf("copy plan: %w", err)
		}
		list = append(list, cp)
	}
	return list, nil
}

func (r *MemoryRepo) GetPlan(_ context.Context, id string) (*WorkoutPlan, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, plan := range r.plans {
		if plan.ID == id {
			cp, err := copyPlan(plan)
			if err != nil {
				return nil, fmt.Errorf("copy plan: %w", err)
			}
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepo) CreatePlan(_ context.Context, plan WorkoutPlan) (*WorkoutPlan, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, err := copyPlan(plan)
	if err != nil {
		return nil, fmt.Errorf("copy plan: %w", err)
	}
	r.nextID++
	stored.ID = "plan-" + strconv.Itoa(r.nextID)
	stored.CreatedAt = r.now().UTC()
	r.plans = append(r.plans, stored)

	created, err := copyPlan(stored)
	if err != nil {
		return nil, fmt.Errorf("copy plan: %w", err)
	}
	return &created, nil
}
