package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	workoutColumns  = `id, to_char(date, 'YYYY-MM-DD'), type, created_at, updated_at`
	exerciseColumns = `id, workout_id, exercise_name, sets, reps, weight, equipment, notes, created_at`
)

// PsqlRepo stores workouts straight in Postgres, for self hosted setups.
// Every query is scoped to the user the repo was created for.
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

func (r *PsqlRepo) CreateWorkout(ctx context.Context, date string, workoutType WorkoutType) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id string
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO workouts (user_id, date, type)
			VALUES ($1, $2::text::date, $3)
		RETURNING id;`,
		r.userID, date, workoutType.String(),
	).Scan(&id); err != nil {
		return "", fmt.Errorf("insert workout: %w", err)
	}

	span.SetAttributes(attribute.String("workout.id", id))
	return id, nil
}

func (r *PsqlRepo) UpdateWorkout(ctx context.Context, id, date string, workoutType WorkoutType) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workouts SET date = $1::text::date, type = $2, updated_at = now()
			WHERE id = $3 AND user_id = $4;`,
		date, workoutType.String(), id, r.userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PsqlRepo) DeleteWorkout(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`,
		id, r.userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PsqlRepo) GetWorkout(ctx context.Context, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	return r.getOne(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`,
		id, r.userID,
	)
}

func (r *PsqlRepo) GetWorkoutByDate(ctx context.Context, date string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.workouts.getbydate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.date", date))

	return r.getOne(ctx,
		`SELECT `+workoutColumns+` FROM workouts
			WHERE date = $1::text::date AND user_id = $2
			ORDER BY created_at DESC
			LIMIT 1`,
		date, r.userID,
	)
}

func (r *PsqlRepo) ListWorkouts(ctx context.Context, limit int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE user_id = $1 ORDER BY date DESC, created_at DESC`
	args := []any{r.userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	return r.list(ctx, query, args...)
}

func (r *PsqlRepo) ListWorkoutsBetween(ctx context.Context, from, to string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.workouts.listbetween")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", from), attribute.String("to", to))

	return r.list(ctx,
		`SELECT `+workoutColumns+` FROM workouts
			WHERE user_id = $1 AND date >= $2::text::date AND date <= $3::text::date
			ORDER BY date DESC, created_at DESC`,
		r.userID, from, to,
	)
}

func (r *PsqlRepo) AddExercise(ctx context.Context, workoutID string, data ExerciseData) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workoutID))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercises (workout_id, user_id, exercise_name, sets, reps, weight, equipment, notes)
			SELECT w.id, w.user_id, $3::text, $4::int, $5::int, $6::float8, $7::text, $8::text
			FROM workouts w WHERE w.id = $1 AND w.user_id = $2
		RETURNING `+exerciseColumns+`;`,
		workoutID, r.userID, data.Name, data.Sets, data.Reps, data.Weight, equipmentArg(data.Equipment), data.Notes,
	)
	if err != nil {
		return nil, err
	}

	exercises, err := pgx.CollectRows(rows, scanExercise)
	if err != nil {
		// the workout was deleted while the insert was running
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("collect exercise: %w", err)
	}
	if len(exercises) == 0 {
		return nil, ErrNotFound
	}

	span.SetAttributes(attribute.String("exercise.id", exercises[0].ID))
	return &exercises[0], nil
}

func (r *PsqlRepo) UpdateExercise(ctx context.Context, id string, patch ExercisePatch) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id))

	args := []any{id, r.userID}
	columns := patch.Columns()
	var sets []string
	for _, f := range patch.Fields() {
		value := columns[f.Column()]
		if f == FieldEquipment {
			value = equipmentArg(patch.values.Equipment)
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column(), len(args)))
	}

	var query string
	if len(sets) == 0 {
		query = `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1 AND user_id = $2`
	} else {
		query = `UPDATE exercises SET ` + strings.Join(sets, ", ") + `
			WHERE id = $1 AND user_id = $2
		RETURNING ` + exerciseColumns
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	exercise, err := pgx.CollectExactlyOneRow(rows, scanExercise)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("collect exercise: %w", err)
	}
	return &exercise, nil
}

func (r *PsqlRepo) DeleteExercise(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.psql.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercises WHERE id = $1 AND user_id = $2`,
		id, r.userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PsqlRepo) getOne(ctx context.Context, query string, args ...any) (*Workout, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	workout, err := pgx.CollectExactlyOneRow(rows, scanWorkout)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("collect workout: %w", err)
	}

	exercises, err := r.exercisesOf(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	workout.Exercises = exercises
	return &workout, nil
}

func (r *PsqlRepo) list(ctx context.Context, query string, args ...any) ([]Workout, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	workouts, err := pgx.CollectRows(rows, scanWorkout)
	if err != nil {
		return nil, fmt.Errorf("collect workouts: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExerciseFetches)
	for i := range workouts {
		g.Go(func() error {
			exercises, err := r.exercisesOf(gCtx, workouts[i].ID)
			if err != nil {
				return err
			}
			workouts[i].Exercises = exercises
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *PsqlRepo) exercisesOf(ctx context.Context, workoutID string) ([]Exercise, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+exerciseColumns+` FROM exercises
			WHERE workout_id = $1 AND user_id = $2
			ORDER BY created_at ASC, id ASC`,
		workoutID, r.userID,
	)
	if err != nil {
		return nil, err
	}
	exercises, err := pgx.CollectRows(rows, scanExercise)
	if err != nil {
		return nil, fmt.Errorf("collect exercises of workout [%s]: %w", workoutID, err)
	}
	if exercises == nil {
		exercises = []Exercise{}
	}
	return exercises, nil
}

func scanWorkout(row pgx.CollectableRow) (Workout, error) {
	var (
		w       Workout
		typeStr string
	)
	if err := row.Scan(&w.ID, &w.Date, &typeStr, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Workout{}, err
	}
	workoutType, err := ParseWorkoutType(typeStr)
	if err != nil {
		return Workout{}, err
	}
	w.Type = workoutType
	return w, nil
}

func scanExercise(row pgx.CollectableRow) (Exercise, error) {
	var (
		e         Exercise
		equipment *string
	)
	if err := row.Scan(
		&e.ID, &e.WorkoutID, &e.Name, &e.Sets, &e.Reps, &e.Weight, &equipment, &e.Notes, &e.CreatedAt,
	); err != nil {
		return Exercise{}, err
	}
	if equipment != nil {
		eq := Equipment(*equipment)
		e.Equipment = &eq
	}
	return e, nil
}

func equipmentArg(e *Equipment) *string {
	if e == nil {
		return nil
	}
	s := string(*e)
	return &s
}
