package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

type TaskRepository struct {
	q      Querier
	logger *zap.Logger
}

const taskColumns = `id, step_id, order_index, title, description, status, is_critical,
       estimated_minutes, actual_minutes, required_tools, notes, created_at, updated_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.StepID,
		&t.OrderIndex,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.IsCritical,
		&t.EstimatedMinutes,
		&t.ActualMinutes,
		&t.RequiredTools,
		&t.Notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get task", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (int64, error) {
	query := `
        INSERT INTO tasks
            (step_id, order_index, title, description, status, is_critical,
             estimated_minutes, actual_minutes, required_tools, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at, updated_at
    `
	err := r.q.QueryRow(ctx, query,
		t.StepID,
		t.OrderIndex,
		t.Title,
		t.Description,
		t.Status,
		t.IsCritical,
		t.EstimatedMinutes,
		t.ActualMinutes,
		t.RequiredTools,
		t.Notes,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert task", zap.Error(err))
		return 0, err
	}
	return t.ID, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET order_index = $2, title = $3, description = $4, status = $5, is_critical = $6,
            estimated_minutes = $7, actual_minutes = $8, required_tools = $9, notes = $10,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.q.Exec(ctx, query,
		t.ID,
		t.OrderIndex,
		t.Title,
		t.Description,
		t.Status,
		t.IsCritical,
		t.EstimatedMinutes,
		t.ActualMinutes,
		t.RequiredTools,
		t.Notes,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Int64("id", t.ID), zap.Error(err))
	}
	return err
}

func (r *TaskRepository) ListByStep(ctx context.Context, stepID int64) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + `
        FROM tasks
        WHERE step_id = $1
        ORDER BY order_index ASC, id ASC`

	rows, err := r.q.Query(ctx, query, stepID)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task", zap.Error(err))
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
