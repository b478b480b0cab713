// Package compiler allocates one resource slot per category for a work
// package, pushes rendered content to the external sync service and persists
// the resulting references. A failure at any point releases every slot
// assigned during the same run.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/pool"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/metrics"
)

// SyncClient pushes rendered content to the external ref's backing document.
type SyncClient interface {
	PushContent(ctx context.Context, externalRef, content string) error
}

// Result carries the three external references produced by a successful run.
type Result struct {
	DiscoveryRef    string `json:"discovery_ref"`
	PreselectionRef string `json:"preselection_ref"`
	SelectionRef    string `json:"selection_ref"`
}

type Compiler struct {
	store  storage.Store
	pool   *pool.Service
	sync   SyncClient
	logger *zap.Logger
}

func New(store storage.Store, pool *pool.Service, sync SyncClient, logger *zap.Logger) *Compiler {
	return &Compiler{store: store, pool: pool, sync: sync, logger: logger}
}

// Compile runs the full allocation for one work package: assign a slot per
// category in fixed order, push the rendered content for each, then persist
// the three refs on the work package in one transaction. Any failure releases
// the slots assigned in this run; release failures are logged and never mask
// the error that triggered the rollback. An empty specialty accepts any slot.
func (c *Compiler) Compile(ctx context.Context, workPackageID int64, specialty string) (*Result, error) {
	start := time.Now()

	wp, err := c.store.WorkPackages().Get(ctx, workPackageID)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		metrics.RecordCompileDuration("error", time.Since(start))
		return nil, &apperr.NotFoundError{Entity: "work_package", ID: workPackageID}
	}

	project, err := c.store.Projects().Get(ctx, wp.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		metrics.RecordCompileDuration("error", time.Since(start))
		return nil, &apperr.NotFoundError{Entity: "project", ID: wp.ProjectID}
	}

	steps, err := c.store.Steps().ListByWorkPackage(ctx, workPackageID)
	if err != nil {
		return nil, err
	}

	var assigned []model.ResourceSlot
	fail := func(outcome string, cause error) (*Result, error) {
		c.releaseAll(ctx, workPackageID, assigned, cause)
		metrics.RecordCompileDuration(outcome, time.Since(start))
		return nil, cause
	}

	for _, category := range model.CompileCategories {
		slot, err := c.pool.FindAvailable(ctx, category, specialty)
		if err != nil {
			return fail("error", err)
		}
		if slot == nil {
			return fail("pool_exhausted", &apperr.PoolExhaustedError{Category: string(category)})
		}
		if err := c.pool.Assign(ctx, slot.ID, workPackageID); err != nil {
			if apperr.IsAssignmentConflict(err) {
				return fail("conflict", err)
			}
			return fail("error", err)
		}
		assigned = append(assigned, *slot)
	}

	in := BuildTemplateInput(project, wp, steps)
	for _, slot := range assigned {
		if err := c.sync.PushContent(ctx, slot.ExternalRef, Render(slot.Category, in)); err != nil {
			return fail("sync_failure", &apperr.SyncFailureError{
				Category:    string(slot.Category),
				ExternalRef: slot.ExternalRef,
				Err:         err,
			})
		}
	}

	result := &Result{}
	for _, slot := range assigned {
		switch slot.Category {
		case model.CategoryDiscovery:
			result.DiscoveryRef = slot.ExternalRef
		case model.CategoryPreselection:
			result.PreselectionRef = slot.ExternalRef
		case model.CategorySelection:
			result.SelectionRef = slot.ExternalRef
		}
	}

	err = c.store.WithTx(ctx, func(tx storage.Store) error {
		current, err := tx.WorkPackages().Get(ctx, workPackageID)
		if err != nil {
			return err
		}
		if current == nil {
			return &apperr.NotFoundError{Entity: "work_package", ID: workPackageID}
		}
		current.DiscoveryRef = result.DiscoveryRef
		current.PreselectionRef = result.PreselectionRef
		current.SelectionRef = result.SelectionRef
		if err := tx.WorkPackages().Update(ctx, current); err != nil {
			return err
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal compile payload: %w", err)
		}
		return tx.Events().Append(ctx, storage.DomainEvent{
			AggregateType: "work_package",
			AggregateID:   workPackageID,
			RoutingKey:    "resources.compiled",
			Payload:       payload,
		})
	})
	if err != nil {
		return fail("error", err)
	}

	metrics.RecordCompileDuration("success", time.Since(start))
	c.logger.Info("resources compiled",
		zap.Int64("work_package_id", workPackageID),
		zap.String("discovery_ref", result.DiscoveryRef),
		zap.String("preselection_ref", result.PreselectionRef),
		zap.String("selection_ref", result.SelectionRef))
	return result, nil
}

// releaseAll is the compensating path: best-effort release of every slot
// assigned in this run, newest first. A release failure leaves the slot
// assigned until an operator intervenes, so it is logged loudly.
func (c *Compiler) releaseAll(ctx context.Context, workPackageID int64, assigned []model.ResourceSlot, cause error) {
	for i := len(assigned) - 1; i >= 0; i-- {
		slot := assigned[i]
		if err := c.pool.Release(ctx, slot.ID); err != nil {
			c.logger.Error("slot release failed during compile rollback",
				zap.Int64("slot_id", slot.ID),
				zap.String("category", string(slot.Category)),
				zap.Int64("work_package_id", workPackageID),
				zap.NamedError("rollback_cause", cause),
				zap.Error(err))
		}
	}
}
