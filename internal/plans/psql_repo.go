package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const planColumns = `id, name, description, duration_weeks, schedule, day_templates, metadata, created_at`

type PsqlRepo struct {
	db     *pgxpool.Pool
	userID string
}

var _ Repo = (*PsqlRepo)(nil)

func NewPsqlRepo(db *pgxpool.Pool, userID string) *PsqlRepo {
	return &PsqlRepo{
		db:     db,
		userID: userID,
	}
}

func scanPlan(row pgx.CollectableRow) (WorkoutPlan, error) {
	var (
		plan                             WorkoutPlan
		schedule, dayTemplates, metadata []byte
	)
	if err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.DurationWeeks,
		&schedule,
		&dayTemplates,
		&metadata,
		&plan.CreatedAt,
	); err != nil {
		return WorkoutPlan{}, err
	}

	if err := json.Unmarshal(schedule, &plan.Schedule); err != nil {
		return WorkoutPlan{}, fmt.Errorf("plan [%s] schedule: %w", plan.ID, err)
	}
	if err := json.Unmarshal(dayTemplates, &plan.DayTemplates); err != nil {
		return WorkoutPlan{}, fmt.Errorf("plan [%s] day templates: %w", plan.ID, err)
	}
	if err := json.Unmarshal(metadata, &plan.Metadata); err != nil {
		return WorkoutPlan{}, fmt.Errorf("plan [%s] metadata: %w", plan.ID, err)
	}
	return plan, nil
}

func (r *PsqlRepo) ListPlans(ctx context.Context) (_ []WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE user_id = $1 ORDER BY created_at DESC`,
		r.userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	plans, err := pgx.CollectRows(rows, scanPlan)
	if err != nil {
		return nil, fmt.Errorf("collect plans: %w", err)
	}
	return plans, nil
}

func (r *PsqlRepo) GetPlan(ctx context.Context, id string) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE id = $1 AND user_id = $2`,
		id, r.userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	plan, err := pgx.CollectExactlyOneRow(rows, scanPlan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}

func (r *PsqlRepo) CreatePlan(ctx context.Context, plan WorkoutPlan) (_ *WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.plans.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := toRow(plan)
	schedule, err := json.Marshal(row.Schedule)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule: %w", err)
	}
	dayTemplates, err := json.Marshal(row.DayTemplates)
	if err != nil {
		return nil, fmt.Errorf("marshal day templates: %w", err)
	}
	metadata, err := metadataJSON(row.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO workout_plans (user_id, name, description, duration_weeks, schedule, day_templates, metadata)
			VALUES ($1, $2, $3, $4, $5::text::jsonb, $6::text::jsonb, $7::text::jsonb)
		RETURNING `+planColumns+`;`,
		r.userID, row.Name, row.Description, row.DurationWeeks,
		string(schedule), string(dayTemplates), string(metadata),
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	created, err := pgx.CollectExactlyOneRow(rows, scanPlan)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	span.SetAttributes(attribute.String("plan.id", created.ID))
	return &created, nil
}
