package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

type ProjectRepository struct {
	q      Querier
	logger *zap.Logger
}

const projectColumns = `id, user_id, title, progression, estimated_days, estimated_budget, status, created_at, updated_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Progression,
		&p.EstimatedDays,
		&p.EstimatedBudget,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id int64) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get project", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (int64, error) {
	query := `
        INSERT INTO projects (user_id, title, progression, estimated_days, estimated_budget, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := r.q.QueryRow(ctx, query,
		p.UserID,
		p.Title,
		p.Progression,
		p.EstimatedDays,
		p.EstimatedBudget,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Project inserted",
		zap.Int64("id", p.ID),
		zap.String("title", p.Title),
	)
	return p.ID, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET title = $2, progression = $3, estimated_days = $4, estimated_budget = $5,
            status = $6, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.q.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Progression,
		p.EstimatedDays,
		p.EstimatedBudget,
		p.Status,
	)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int64("id", p.ID), zap.Error(err))
	}
	return err
}
