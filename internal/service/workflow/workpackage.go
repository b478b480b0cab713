package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/metrics"
)

// transitionWorkPackage applies one edge of the status graph to a
// work-package, with common bookkeeping: the blockage reason is cleared on
// any transition away from blocked, the project roll-up is refreshed, and a
// status event rides the same transaction.
func (e *Engine) transitionWorkPackage(ctx context.Context, id int64, target model.WorkStatus, mutate func(*model.WorkPackage)) (*model.WorkPackage, error) {
	var out *model.WorkPackage
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		wp, err := e.getWorkPackage(ctx, st, id)
		if err != nil {
			return err
		}
		if err := checkTransition("work_package", id, wp.Status, target); err != nil {
			return err
		}

		from := wp.Status
		wp.Status = target
		if from == model.StatusBlocked {
			wp.BlockageReason = ""
		}
		if mutate != nil {
			mutate(wp)
		}

		if err := st.WorkPackages().Update(ctx, wp); err != nil {
			return err
		}
		if err := e.appendStatusEvent(ctx, st, "workpackage", id, from, target); err != nil {
			return err
		}
		if err := e.refreshProjectAfterChange(ctx, st, wp.ProjectID); err != nil {
			return err
		}

		metrics.RecordStatusTransition("work_package", string(from), string(target))
		out = wp
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Work package transitioned",
		zap.Int64("id", out.ID),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

func (e *Engine) StartWorkPackage(ctx context.Context, id int64) (*model.WorkPackage, error) {
	return e.transitionWorkPackage(ctx, id, model.StatusInProgress, nil)
}

func (e *Engine) BlockWorkPackage(ctx context.Context, id int64, reason string) (*model.WorkPackage, error) {
	if reason == "" {
		return nil, errors.New("blockage reason is required")
	}
	return e.transitionWorkPackage(ctx, id, model.StatusBlocked, func(wp *model.WorkPackage) {
		wp.BlockageReason = reason
	})
}

func (e *Engine) UnblockWorkPackage(ctx context.Context, id int64) (*model.WorkPackage, error) {
	return e.transitionWorkPackage(ctx, id, model.StatusInProgress, nil)
}

func (e *Engine) CancelWorkPackage(ctx context.Context, id int64) (*model.WorkPackage, error) {
	return e.transitionWorkPackage(ctx, id, model.StatusCancelled, nil)
}

func (e *Engine) ReactivateWorkPackage(ctx context.Context, id int64) (*model.WorkPackage, error) {
	return e.transitionWorkPackage(ctx, id, model.StatusUpcoming, func(wp *model.WorkPackage) {
		wp.Progression = 0
		wp.BlockageReason = ""
		wp.CompletedAt = nil
	})
}

// CompleteWorkPackage finishes a work-package directly. When the
// work-package owns steps this is only legal once item-by-item completion
// has driven progression to 100; the bulk path is CompleteAllWorkPackage.
func (e *Engine) CompleteWorkPackage(ctx context.Context, id int64) (*model.WorkPackage, error) {
	var out *model.WorkPackage
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		wp, err := e.getWorkPackage(ctx, st, id)
		if err != nil {
			return err
		}
		if err := checkTransition("work_package", id, wp.Status, model.StatusCompleted); err != nil {
			return err
		}

		steps, err := st.Steps().ListByWorkPackage(ctx, id)
		if err != nil {
			return err
		}
		if len(steps) > 0 && wp.Progression < 100 {
			return &apperr.InvalidTransitionError{
				Entity: "work_package",
				ID:     id,
				From:   string(wp.Status),
				To:     string(model.StatusCompleted),
				Reason: "steps are not all completed",
			}
		}

		from := wp.Status
		now := e.now()
		wp.Status = model.StatusCompleted
		wp.Progression = 100
		wp.BlockageReason = ""
		wp.CompletedAt = &now

		if err := st.WorkPackages().Update(ctx, wp); err != nil {
			return err
		}
		if err := e.appendStatusEvent(ctx, st, "workpackage", id, from, model.StatusCompleted); err != nil {
			return err
		}
		if err := e.refreshProjectAfterChange(ctx, st, wp.ProjectID); err != nil {
			return err
		}

		metrics.RecordStatusTransition("work_package", string(from), string(model.StatusCompleted))
		out = wp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteAllWorkPackage is the bulk cascade: every non-completed step is
// forced to completed (which forces its tasks to done), then the
// work-package itself completes. The whole cascade runs in one transaction;
// on persistence failure nothing is visible to other readers.
func (e *Engine) CompleteAllWorkPackage(ctx context.Context, id int64) (*model.WorkPackage, error) {
	start := e.now()
	var out *model.WorkPackage
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		wp, err := e.getWorkPackage(ctx, st, id)
		if err != nil {
			return err
		}
		if wp.Status == model.StatusCompleted {
			out = wp
			return nil
		}

		steps, err := st.Steps().ListByWorkPackage(ctx, id)
		if err != nil {
			return err
		}
		now := e.now()
		for i := range steps {
			if steps[i].Status == model.StatusCompleted {
				continue
			}
			if err := e.forceCompleteStep(ctx, st, &steps[i], now); err != nil {
				return err
			}
		}

		from := wp.Status
		wp.Status = model.StatusCompleted
		wp.Progression = 100
		wp.BlockageReason = ""
		wp.CompletedAt = &now

		if err := st.WorkPackages().Update(ctx, wp); err != nil {
			return err
		}
		if err := e.appendStatusEvent(ctx, st, "workpackage", id, from, model.StatusCompleted); err != nil {
			return err
		}
		if err := e.refreshProjectAfterChange(ctx, st, wp.ProjectID); err != nil {
			return err
		}

		metrics.RecordStatusTransition("work_package", string(from), string(model.StatusCompleted))
		out = wp
		return nil
	})
	if err != nil {
		if apperr.IsNotFound(err) || apperr.IsInvalidTransition(err) {
			return nil, err
		}
		return nil, &apperr.CascadeFailureError{Entity: "work_package", ID: id, Err: err}
	}

	metrics.RecordCascadeDuration("work_package", e.now().Sub(start))
	e.logger.Info("Work package cascade completed", zap.Int64("id", id))
	return out, nil
}

// forceCompleteStep drives a step and all of its tasks to their terminal
// states, bypassing the per-edge graph. Only cascades use it.
func (e *Engine) forceCompleteStep(ctx context.Context, st storage.Store, step *model.Step, now time.Time) error {
	tasks, err := st.Tasks().ListByStep(ctx, step.ID)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].Status == model.TaskStatusDone {
			continue
		}
		tasks[i].Status = model.TaskStatusDone
		if err := st.Tasks().Update(ctx, &tasks[i]); err != nil {
			return err
		}
	}

	from := step.Status
	step.Status = model.StatusCompleted
	step.Progression = 100
	step.BlockageReason = ""
	step.CompletedAt = &now

	if err := st.Steps().Update(ctx, step); err != nil {
		return err
	}
	if err := e.appendStatusEvent(ctx, st, "step", step.ID, from, model.StatusCompleted); err != nil {
		return err
	}

	metrics.RecordStatusTransition("step", string(from), string(model.StatusCompleted))
	return nil
}
