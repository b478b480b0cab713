package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

type SlotRepository struct {
	q      Querier
	logger *zap.Logger
}

const slotColumns = `id, category, specialty, external_ref, status, assigned_to, created_at, updated_at`

func scanSlot(row pgx.Row) (*model.ResourceSlot, error) {
	var s model.ResourceSlot
	err := row.Scan(
		&s.ID,
		&s.Category,
		&s.Specialty,
		&s.ExternalRef,
		&s.Status,
		&s.AssignedTo,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepository) Get(ctx context.Context, id int64) (*model.ResourceSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM resource_slots WHERE id = $1`

	s, err := scanSlot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get resource slot", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return s, nil
}

func (r *SlotRepository) Insert(ctx context.Context, s *model.ResourceSlot) (int64, error) {
	query := `
        INSERT INTO resource_slots (category, specialty, external_ref, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `
	err := r.q.QueryRow(ctx, query,
		s.Category,
		s.Specialty,
		s.ExternalRef,
		s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert resource slot", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Resource slot inserted",
		zap.Int64("id", s.ID),
		zap.String("category", string(s.Category)),
		zap.String("external_ref", s.ExternalRef),
	)
	return s.ID, nil
}

// ListAvailable returns available slots oldest-created first, id as tiebreak,
// which gives the pool its FIFO fairness.
func (r *SlotRepository) ListAvailable(ctx context.Context, category model.ResourceCategory, specialty string) ([]model.ResourceSlot, error) {
	query := `SELECT ` + slotColumns + `
        FROM resource_slots
        WHERE status = 'available' AND category = $1 AND ($2 = '' OR specialty = $2)
        ORDER BY created_at ASC, id ASC`

	rows, err := r.q.Query(ctx, query, category, specialty)
	if err != nil {
		r.logger.Error("Failed to list available slots", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []model.ResourceSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			r.logger.Error("Failed to scan resource slot", zap.Error(err))
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Assign is a compare-and-swap on the slot's status: the row is only updated
// when it is still available, so two racing assignments cannot both succeed.
func (r *SlotRepository) Assign(ctx context.Context, slotID, workPackageID int64) (bool, error) {
	query := `
        UPDATE resource_slots
        SET status = 'assigned', assigned_to = $2, updated_at = NOW()
        WHERE id = $1 AND status = 'available'
    `
	tag, err := r.q.Exec(ctx, query, slotID, workPackageID)
	if err != nil {
		r.logger.Error("Failed to assign resource slot",
			zap.Int64("slot_id", slotID),
			zap.Int64("work_package_id", workPackageID),
			zap.Error(err),
		)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release is idempotent: a slot that is already available matches no row.
func (r *SlotRepository) Release(ctx context.Context, slotID int64) error {
	query := `
        UPDATE resource_slots
        SET status = 'available', assigned_to = NULL, updated_at = NOW()
        WHERE id = $1 AND status = 'assigned'
    `
	_, err := r.q.Exec(ctx, query, slotID)
	if err != nil {
		r.logger.Error("Failed to release resource slot", zap.Int64("slot_id", slotID), zap.Error(err))
	}
	return err
}

func (r *SlotRepository) ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.ResourceSlot, error) {
	query := `SELECT ` + slotColumns + `
        FROM resource_slots
        WHERE status = 'assigned' AND assigned_to = $1
        ORDER BY id ASC`

	rows, err := r.q.Query(ctx, query, workPackageID)
	if err != nil {
		r.logger.Error("Failed to list slots by work package", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []model.ResourceSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SlotRepository) CountAvailable(ctx context.Context) (map[model.ResourceCategory]int, error) {
	query := `
        SELECT category, COUNT(*)
        FROM resource_slots
        WHERE status = 'available'
        GROUP BY category
    `
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to count available slots", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ResourceCategory]int)
	for rows.Next() {
		var category model.ResourceCategory
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
