// Package pool manages exclusive, category-scoped assignment of the finite
// catalog of pre-provisioned resource slots. Ownership transfer only happens
// through Assign and Release; no other component writes a slot's status.
package pool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/metrics"
)

type Service struct {
	store  storage.Store
	logger *zap.Logger
}

func NewService(store storage.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// FindAvailable returns one available slot for the category, preferring a
// specialty match when given. Selection is FIFO: oldest-created first, id as
// tiebreak. An exhausted category returns (nil, nil), not an error.
func (s *Service) FindAvailable(ctx context.Context, category model.ResourceCategory, specialty string) (*model.ResourceSlot, error) {
	slots, err := s.store.Slots().ListAvailable(ctx, category, specialty)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 && specialty != "" {
		// Fall back to any specialty before reporting the category exhausted.
		slots, err = s.store.Slots().ListAvailable(ctx, category, "")
		if err != nil {
			return nil, err
		}
	}
	if len(slots) == 0 {
		return nil, nil
	}
	return &slots[0], nil
}

// Assign transfers slot ownership to a work-package. The storage layer does
// a compare-and-swap on the slot's status, so a lost race surfaces as an
// AssignmentConflictError rather than a silent double assignment. A
// work-package may hold at most one slot per category.
func (s *Service) Assign(ctx context.Context, slotID, workPackageID int64) error {
	slot, err := s.store.Slots().Get(ctx, slotID)
	if err != nil {
		return err
	}
	if slot == nil {
		return &apperr.NotFoundError{Entity: "resource_slot", ID: slotID}
	}

	held, err := s.store.Slots().ListByWorkPackage(ctx, workPackageID)
	if err != nil {
		return err
	}
	for _, h := range held {
		if h.Category == slot.Category {
			return &apperr.AssignmentConflictError{
				Category: string(slot.Category),
				SlotID:   slotID,
				Reason:   fmt.Sprintf("work package %d already holds a slot of this category", workPackageID),
			}
		}
	}

	ok, err := s.store.Slots().Assign(ctx, slotID, workPackageID)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.AssignmentConflictError{Category: string(slot.Category), SlotID: slotID}
	}

	s.logger.Info("Resource slot assigned",
		zap.Int64("slot_id", slotID),
		zap.Int64("work_package_id", workPackageID),
		zap.String("category", string(slot.Category)),
	)
	return nil
}

// Release returns a slot to the pool. Releasing a slot that is already
// available is a no-op, not an error.
func (s *Service) Release(ctx context.Context, slotID int64) error {
	slot, err := s.store.Slots().Get(ctx, slotID)
	if err != nil {
		return err
	}
	if slot == nil {
		return &apperr.NotFoundError{Entity: "resource_slot", ID: slotID}
	}
	if slot.Status == model.SlotStatusAvailable {
		return nil
	}

	if err := s.store.Slots().Release(ctx, slotID); err != nil {
		return err
	}

	s.logger.Info("Resource slot released", zap.Int64("slot_id", slotID))
	return nil
}

// Provision adds a new slot to the catalog, starting as available.
func (s *Service) Provision(ctx context.Context, category model.ResourceCategory, specialty, externalRef string) (*model.ResourceSlot, error) {
	slot := &model.ResourceSlot{
		Category:    category,
		Specialty:   specialty,
		ExternalRef: externalRef,
		Status:      model.SlotStatusAvailable,
	}
	id, err := s.store.Slots().Insert(ctx, slot)
	if err != nil {
		return nil, err
	}
	slot.ID = id

	s.logger.Info("Resource slot provisioned",
		zap.Int64("slot_id", id),
		zap.String("category", string(category)),
		zap.String("specialty", specialty),
	)
	return slot, nil
}

// AvailabilityCounts reports available slots per category and refreshes the
// capacity gauge.
func (s *Service) AvailabilityCounts(ctx context.Context) (map[model.ResourceCategory]int, error) {
	counts, err := s.store.Slots().CountAvailable(ctx)
	if err != nil {
		return nil, err
	}
	for _, category := range model.CompileCategories {
		metrics.SetPoolAvailable(string(category), counts[category])
	}
	return counts, nil
}
