package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

type StepRepository struct {
	q      Querier
	logger *zap.Logger
}

const stepColumns = `id, work_package_id, order_index, title, description, status, progression,
       difficulty, required_tools, estimated_minutes, actual_minutes,
       blockage_reason, professional_tip, completed_at, created_at, updated_at`

func scanStep(row pgx.Row) (*model.Step, error) {
	var s model.Step
	err := row.Scan(
		&s.ID,
		&s.WorkPackageID,
		&s.OrderIndex,
		&s.Title,
		&s.Description,
		&s.Status,
		&s.Progression,
		&s.Difficulty,
		&s.RequiredTools,
		&s.EstimatedMinutes,
		&s.ActualMinutes,
		&s.BlockageReason,
		&s.ProfessionalTip,
		&s.CompletedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StepRepository) Get(ctx context.Context, id int64) (*model.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE id = $1`

	s, err := scanStep(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get step", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return s, nil
}

func (r *StepRepository) Insert(ctx context.Context, s *model.Step) (int64, error) {
	query := `
        INSERT INTO steps
            (work_package_id, order_index, title, description, status, progression,
             difficulty, required_tools, estimated_minutes, actual_minutes,
             blockage_reason, professional_tip)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id, created_at, updated_at
    `
	err := r.q.QueryRow(ctx, query,
		s.WorkPackageID,
		s.OrderIndex,
		s.Title,
		s.Description,
		s.Status,
		s.Progression,
		s.Difficulty,
		s.RequiredTools,
		s.EstimatedMinutes,
		s.ActualMinutes,
		s.BlockageReason,
		s.ProfessionalTip,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert step", zap.Error(err))
		return 0, err
	}
	return s.ID, nil
}

func (r *StepRepository) Update(ctx context.Context, s *model.Step) error {
	query := `
        UPDATE steps
        SET order_index = $2, title = $3, description = $4, status = $5, progression = $6,
            difficulty = $7, required_tools = $8, estimated_minutes = $9, actual_minutes = $10,
            blockage_reason = $11, professional_tip = $12, completed_at = $13, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.q.Exec(ctx, query,
		s.ID,
		s.OrderIndex,
		s.Title,
		s.Description,
		s.Status,
		s.Progression,
		s.Difficulty,
		s.RequiredTools,
		s.EstimatedMinutes,
		s.ActualMinutes,
		s.BlockageReason,
		s.ProfessionalTip,
		s.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update step", zap.Int64("id", s.ID), zap.Error(err))
	}
	return err
}

func (r *StepRepository) ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.Step, error) {
	query := `SELECT ` + stepColumns + `
        FROM steps
        WHERE work_package_id = $1
        ORDER BY order_index ASC, id ASC`

	return r.list(ctx, query, workPackageID)
}

func (r *StepRepository) ListByStatus(ctx context.Context, workPackageID int64, status model.WorkStatus) ([]model.Step, error) {
	query := `SELECT ` + stepColumns + `
        FROM steps
        WHERE work_package_id = $1 AND status = $2
        ORDER BY order_index ASC, id ASC`

	return r.list(ctx, query, workPackageID, status)
}

func (r *StepRepository) list(ctx context.Context, query string, args ...any) ([]model.Step, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list steps", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []model.Step
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			r.logger.Error("Failed to scan step", zap.Error(err))
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
