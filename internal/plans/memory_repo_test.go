package plans_test

import (
	"context"
	"testing"

	"github.com/2beens/liftlog/internal/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := plans.NewMemoryRepo()

	list, err := repo.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	demo := plans.DemoPlan()
	first, err := repo.CreatePlan(ctx, demo)
	require.NoError(t, err)
	assert.Equal(t, "plan-1", first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, demo.Name, first.Name)

	second := demo
	second.Name = "Upper Lower"
	created, err := repo.CreatePlan(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "plan-2", created.ID)

	// newest first
	list, err = repo.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Upper Lower", list[0].Name)
	assert.Equal(t, demo.Name, list[1].Name)

	// returned plans are copies
	list[1].Schedule["sunday"] = plans.ScheduleEntry{IsRestDay: true}
	got, err := repo.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.NotContains(t, got.Schedule, "sunday")

	_, err = repo.GetPlan(ctx, "plan-9")
	assert.ErrorIs(t, err, plans.ErrNotFound)
}
