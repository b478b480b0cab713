package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

type WorkPackageRepository struct {
	q      Querier
	logger *zap.Logger
}

const workPackageColumns = `id, project_id, title, description, status, progression,
       estimated_hours, actual_hours, estimated_cost, actual_cost,
       blockage_reason, order_index, discovery_ref, preselection_ref, selection_ref,
       completed_at, created_at, updated_at`

func scanWorkPackage(row pgx.Row) (*model.WorkPackage, error) {
	var wp model.WorkPackage
	err := row.Scan(
		&wp.ID,
		&wp.ProjectID,
		&wp.Title,
		&wp.Description,
		&wp.Status,
		&wp.Progression,
		&wp.EstimatedHours,
		&wp.ActualHours,
		&wp.EstimatedCost,
		&wp.ActualCost,
		&wp.BlockageReason,
		&wp.OrderIndex,
		&wp.DiscoveryRef,
		&wp.PreselectionRef,
		&wp.SelectionRef,
		&wp.CompletedAt,
		&wp.CreatedAt,
		&wp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wp, nil
}

func (r *WorkPackageRepository) Get(ctx context.Context, id int64) (*model.WorkPackage, error) {
	query := `SELECT ` + workPackageColumns + ` FROM work_packages WHERE id = $1`

	wp, err := scanWorkPackage(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get work package", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return wp, nil
}

func (r *WorkPackageRepository) Insert(ctx context.Context, wp *model.WorkPackage) (int64, error) {
	query := `
        INSERT INTO work_packages
            (project_id, title, description, status, progression,
             estimated_hours, actual_hours, estimated_cost, actual_cost,
             blockage_reason, order_index)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at
    `
	err := r.q.QueryRow(ctx, query,
		wp.ProjectID,
		wp.Title,
		wp.Description,
		wp.Status,
		wp.Progression,
		wp.EstimatedHours,
		wp.ActualHours,
		wp.EstimatedCost,
		wp.ActualCost,
		wp.BlockageReason,
		wp.OrderIndex,
	).Scan(&wp.ID, &wp.CreatedAt, &wp.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert work package", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Work package inserted",
		zap.Int64("id", wp.ID),
		zap.Int64("project_id", wp.ProjectID),
	)
	return wp.ID, nil
}

func (r *WorkPackageRepository) Update(ctx context.Context, wp *model.WorkPackage) error {
	query := `
        UPDATE work_packages
        SET title = $2, description = $3, status = $4, progression = $5,
            estimated_hours = $6, actual_hours = $7, estimated_cost = $8, actual_cost = $9,
            blockage_reason = $10, order_index = $11,
            discovery_ref = $12, preselection_ref = $13, selection_ref = $14,
            completed_at = $15, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.q.Exec(ctx, query,
		wp.ID,
		wp.Title,
		wp.Description,
		wp.Status,
		wp.Progression,
		wp.EstimatedHours,
		wp.ActualHours,
		wp.EstimatedCost,
		wp.ActualCost,
		wp.BlockageReason,
		wp.OrderIndex,
		wp.DiscoveryRef,
		wp.PreselectionRef,
		wp.SelectionRef,
		wp.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update work package", zap.Int64("id", wp.ID), zap.Error(err))
	}
	return err
}

func (r *WorkPackageRepository) ListByProject(ctx context.Context, projectID int64) ([]model.WorkPackage, error) {
	query := `SELECT ` + workPackageColumns + `
        FROM work_packages
        WHERE project_id = $1
        ORDER BY order_index ASC, id ASC`

	return r.list(ctx, query, projectID)
}

func (r *WorkPackageRepository) ListByStatus(ctx context.Context, projectID int64, status model.WorkStatus) ([]model.WorkPackage, error) {
	query := `SELECT ` + workPackageColumns + `
        FROM work_packages
        WHERE project_id = $1 AND status = $2
        ORDER BY order_index ASC, id ASC`

	return r.list(ctx, query, projectID, status)
}

func (r *WorkPackageRepository) list(ctx context.Context, query string, args ...any) ([]model.WorkPackage, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list work packages", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []model.WorkPackage
	for rows.Next() {
		wp, err := scanWorkPackage(rows)
		if err != nil {
			r.logger.Error("Failed to scan work package", zap.Error(err))
			return nil, err
		}
		out = append(out, *wp)
	}
	return out, rows.Err()
}
