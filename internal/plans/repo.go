package plans

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("plan not found")

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=plans_test

// Repo stores the workout plans of one user, newest first. Stored plans get
// a fresh id, the id of the submitted plan is not kept.
type Repo interface {
	ListPlans(ctx context.Context) ([]WorkoutPlan, error)
	GetPlan(ctx context.Context, id string) (*WorkoutPlan, error)
	CreatePlan(ctx context.Context, plan WorkoutPlan) (*WorkoutPlan, error)
}
