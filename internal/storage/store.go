// Package storage defines the persistent entity store boundary used by the
// workflow engine, pool and compiler. The Postgres implementation lives in
// internal/repository; an in-memory implementation backs the tests.
package storage

import (
	"context"
	"encoding/json"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

// Store groups the per-entity repositories behind one transactional boundary.
// WithTx runs fn against a transaction-scoped Store: every repository call
// made through the argument commits or rolls back as a unit. Cascading status
// transitions go through WithTx so a cascade is never observed half-applied.
type Store interface {
	Projects() ProjectRepo
	WorkPackages() WorkPackageRepo
	Steps() StepRepo
	Tasks() TaskRepo
	Slots() SlotRepo
	Events() EventRepo

	WithTx(ctx context.Context, fn func(Store) error) error
}

// ProjectRepo persists projects. Get returns (nil, nil) when the id does not
// resolve; callers map that to apperr.NotFoundError.
type ProjectRepo interface {
	Get(ctx context.Context, id int64) (*model.Project, error)
	Insert(ctx context.Context, p *model.Project) (int64, error)
	Update(ctx context.Context, p *model.Project) error
}

type WorkPackageRepo interface {
	Get(ctx context.Context, id int64) (*model.WorkPackage, error)
	Insert(ctx context.Context, wp *model.WorkPackage) (int64, error)
	Update(ctx context.Context, wp *model.WorkPackage) error
	ListByProject(ctx context.Context, projectID int64) ([]model.WorkPackage, error)
	ListByStatus(ctx context.Context, projectID int64, status model.WorkStatus) ([]model.WorkPackage, error)
}

type StepRepo interface {
	Get(ctx context.Context, id int64) (*model.Step, error)
	Insert(ctx context.Context, s *model.Step) (int64, error)
	Update(ctx context.Context, s *model.Step) error
	ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.Step, error)
	ListByStatus(ctx context.Context, workPackageID int64, status model.WorkStatus) ([]model.Step, error)
}

type TaskRepo interface {
	Get(ctx context.Context, id int64) (*model.Task, error)
	Insert(ctx context.Context, t *model.Task) (int64, error)
	Update(ctx context.Context, t *model.Task) error
	ListByStep(ctx context.Context, stepID int64) ([]model.Task, error)
}

// SlotRepo persists resource slots. Assign is the store's only
// concurrency-sensitive operation: a conditional update against the slot's
// current status, never a blind overwrite.
type SlotRepo interface {
	Get(ctx context.Context, id int64) (*model.ResourceSlot, error)
	Insert(ctx context.Context, s *model.ResourceSlot) (int64, error)

	// ListAvailable returns available slots for a category, optionally
	// narrowed by specialty, oldest-created first with id as tiebreak.
	ListAvailable(ctx context.Context, category model.ResourceCategory, specialty string) ([]model.ResourceSlot, error)

	// Assign flips the slot available -> assigned iff it is still available.
	// Returns false (no error) when the conditional update matched no row.
	Assign(ctx context.Context, slotID, workPackageID int64) (bool, error)

	// Release flips the slot back to available and clears the assignment.
	// Releasing an already-available slot is a no-op.
	Release(ctx context.Context, slotID int64) error

	ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.ResourceSlot, error)
	CountAvailable(ctx context.Context) (map[model.ResourceCategory]int, error)
}

// DomainEvent is an outbox record. Events appended inside WithTx become
// visible to the dispatcher only after the surrounding transaction commits.
type DomainEvent struct {
	AggregateType string
	AggregateID   int64
	RoutingKey    string
	Payload       json.RawMessage
}

type EventRepo interface {
	Append(ctx context.Context, e DomainEvent) error
}
