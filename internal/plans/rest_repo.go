package plans

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/liftlog/internal/backend"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const tablePlans = "workout_plans"

type RestRepo struct {
	client *backend.Client
}

var _ Repo = (*RestRepo)(nil)

func NewRestRepo(client *backend.Client) *RestRepo {
	return &RestRepo{
		client: client,
	}
}

// planRow is the table layout, with the schedule and templates in jsonb columns.
type planRow struct {
	ID            string                   `json:"id,omitempty"`
	Name          string                   `json:"name"`
	Description   *string                  `json:"description"`
	DurationWeeks *int                     `json:"duration_weeks"`
	Schedule      map[string]ScheduleEntry `json:"schedule"`
	DayTemplates  []DayTemplate            `json:"day_templates"`
	Metadata      map[string]any           `json:"metadata"`
	CreatedAt     *time.Time               `json:"created_at,omitempty"`
}

func toRow(plan WorkoutPlan) planRow {
	row := planRow{
		Name:          plan.Name,
		Description:   plan.Description,
		DurationWeeks: plan.DurationWeeks,
		Schedule:      plan.Schedule,
		DayTemplates:  plan.DayTemplates,
		Metadata:      plan.Metadata,
	}
	if row.Schedule == nil {
		row.Schedule = map[string]ScheduleEntry{}
	}
	if row.DayTemplates == nil {
		row.DayTemplates = []DayTemplate{}
	}
	if row.Metadata == nil {
		row.Metadata = map[string]any{}
	}
	return row
}

func (row planRow) plan() WorkoutPlan {
	plan := WorkoutPlan{
		ID:            row.ID,
		Name:          row.Name,
		Description:   row.Description,
		DurationWeeks: row.DurationWeeks,
		Schedule:      row.Schedule,
		DayTemplates:  row.DayTemplates,
		Metadata:      row.Metadata,
	}
	if row.CreatedAt != nil {
		plan.CreatedAt = *row.CreatedAt
	}
	return plan
}

func (r *RestRepo) ListPlans(ctx context.Context) (_ []WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var rows []planRow
	if err := r.client.From(tablePlans).Order("created_at", false).Get(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	plans := make([]WorkoutPlan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, row.plan())
	}
	return plans, nil
}

func (r *RestRepo) GetPlan(ctx context.Context, id string) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id))

	var row planRow
	if err := r.client.From(tablePlans).Eq("id", id).Single().Get(ctx, &row); err != nil {
		if backend.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	plan := row.plan()
	return &plan, nil
}

func (r *RestRepo) CreatePlan(ctx context.Context, plan WorkoutPlan) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.rest.plans.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var created planRow
	if err := r.client.From(tablePlans).Single().Insert(ctx, toRow(plan), &created); err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	span.SetAttributes(attribute.String("plan.id", created.ID))

	stored := created.plan()
	return &stored, nil
}
