package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/JaimeStill/dcma/pkg/pagination"
	"github.com/JaimeStill/dcma/pkg/query"
	"github.com/JaimeStill/dcma/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a history repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "history"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Step], error) {
	page.Normalize(r.pagination)
	if err := page.CheckSort(projection.Has); err != nil {
		return nil, err
	}

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "BatchInstanceID", "UserName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count step history: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	steps, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanStep)
	if err != nil {
		return nil, fmt.Errorf("query step history: %w", err)
	}

	result := pagination.NewPageResult(steps, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) FindOpen(ctx context.Context, key Key) (*Step, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	q, args := keyQuery(key).WhereNullable("EndTime", nil).BuildSingleOrNull()
	return r.findOne(ctx, q, args)
}

func (r *repo) FindExisting(ctx context.Context, key Key) (*Step, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	q, args := keyQuery(key).BuildSingleOrNull()
	return r.findOne(ctx, q, args)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Step, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)
	return r.findOne(ctx, q, args)
}

func (r *repo) findOne(ctx context.Context, q string, args []any) (*Step, error) {
	s, err := repository.QueryOne(ctx, r.db, q, args, scanStep)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	q, args := query.NewBuilder(projection).WhereEquals("ID", id).BuildDelete()
	if err := repository.ExecExpectOne(ctx, r.db, q, args...); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	r.logger.Info("step history deleted", "id", id)
	return nil
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Step, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	s, err := r.record(ctx, cmd)
	if errors.Is(err, ErrDuplicate) {
		// a concurrent first visit inserted the row; fold into it
		s, err = r.record(ctx, cmd)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"step history recorded",
		"batch_instance_id", s.BatchInstanceID,
		"status", s.BatchInstanceStatus,
		"user", s.UserName,
		"duration_ms", s.DurationMs,
	)
	return s, nil
}

func (r *repo) record(ctx context.Context, cmd RecordCommand) (*Step, error) {
	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Step, error) {
		q, args := keyQuery(cmd.Key).ForUpdate().BuildSingleOrNull()
		existing, err := repository.QueryOne(ctx, tx, q, args, scanStep)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.QueryOne(ctx, tx, `
		INSERT INTO manual_step_history(batch_instance_id, batch_instance_status, user_name, start_time, end_time, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		`+projection.Returning(),
				[]any{
					cmd.BatchInstanceID,
					cmd.BatchInstanceStatus,
					cmd.UserName,
					cmd.StartTime,
					cmd.EndTime,
					cmd.DurationMs,
				},
				scanStep,
			)
		}
		if err != nil {
			return Step{}, err
		}

		total := AddDuration(existing.DurationMs, cmd.DurationMs)
		if total == math.MaxInt64 {
			r.logger.Error(
				"accumulated step duration saturated",
				"batch_instance_id", cmd.BatchInstanceID,
				"status", cmd.BatchInstanceStatus,
				"user", cmd.UserName,
			)
		}

		return repository.QueryOne(ctx, tx, `
		UPDATE manual_step_history
		SET end_time = $2, duration_ms = $3, updated_at = NOW()
		WHERE id = $1
		`+projection.Returning(),
			[]any{existing.ID, cmd.EndTime, total},
			scanStep,
		)
	})

	if repository.Code(err) == repository.CheckViolation {
		return nil, ErrNegativeDuration
	}
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func keyQuery(key Key) *query.Builder {
	return query.NewBuilder(projection).
		WhereEquals("BatchInstanceID", key.BatchInstanceID).
		WhereEquals("BatchInstanceStatus", key.BatchInstanceStatus).
		WhereEquals("UserName", key.UserName)
}
