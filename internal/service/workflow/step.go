package workflow

import (
	"context"
	"errors"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/progress"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/metrics"
)

// refreshWorkPackageAfterStepChange recomputes the owning work-package's
// derived progression, auto-completes it when item-by-item completion drove
// progression to 100, and rolls the change up into the project.
func (e *Engine) refreshWorkPackageAfterStepChange(ctx context.Context, st storage.Store, workPackageID int64) error {
	wp, err := st.WorkPackages().Get(ctx, workPackageID)
	if err != nil || wp == nil {
		return err
	}
	steps, err := st.Steps().ListByWorkPackage(ctx, workPackageID)
	if err != nil {
		return err
	}

	completed := 0
	for _, s := range steps {
		if s.Status == model.StatusCompleted {
			completed++
		}
	}
	if len(steps) > 0 {
		wp.Progression = progress.PercentComplete(completed, len(steps))
	}

	if wp.Status == model.StatusInProgress && len(steps) > 0 && wp.Progression == 100 {
		now := e.now()
		wp.Status = model.StatusCompleted
		wp.CompletedAt = &now
		if err := e.appendStatusEvent(ctx, st, "workpackage", wp.ID, model.StatusInProgress, model.StatusCompleted); err != nil {
			return err
		}
		metrics.RecordStatusTransition("work_package", string(model.StatusInProgress), string(model.StatusCompleted))
	}

	if err := st.WorkPackages().Update(ctx, wp); err != nil {
		return err
	}
	return e.refreshProjectAfterChange(ctx, st, wp.ProjectID)
}

func (e *Engine) transitionStep(ctx context.Context, id int64, target model.WorkStatus, mutate func(*model.Step)) (*model.Step, error) {
	var out *model.Step
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		step, err := e.getStep(ctx, st, id)
		if err != nil {
			return err
		}
		if err := checkTransition("step", id, step.Status, target); err != nil {
			return err
		}

		from := step.Status
		step.Status = target
		if from == model.StatusBlocked {
			step.BlockageReason = ""
		}
		if mutate != nil {
			mutate(step)
		}

		if err := st.Steps().Update(ctx, step); err != nil {
			return err
		}
		if err := e.appendStatusEvent(ctx, st, "step", id, from, target); err != nil {
			return err
		}
		if err := e.refreshWorkPackageAfterStepChange(ctx, st, step.WorkPackageID); err != nil {
			return err
		}

		metrics.RecordStatusTransition("step", string(from), string(target))
		out = step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) StartStep(ctx context.Context, id int64) (*model.Step, error) {
	return e.transitionStep(ctx, id, model.StatusInProgress, nil)
}

func (e *Engine) BlockStep(ctx context.Context, id int64, reason string) (*model.Step, error) {
	if reason == "" {
		return nil, errors.New("blockage reason is required")
	}
	return e.transitionStep(ctx, id, model.StatusBlocked, func(s *model.Step) {
		s.BlockageReason = reason
	})
}

func (e *Engine) UnblockStep(ctx context.Context, id int64) (*model.Step, error) {
	return e.transitionStep(ctx, id, model.StatusInProgress, nil)
}

func (e *Engine) CancelStep(ctx context.Context, id int64) (*model.Step, error) {
	return e.transitionStep(ctx, id, model.StatusCancelled, nil)
}

func (e *Engine) ReactivateStep(ctx context.Context, id int64) (*model.Step, error) {
	return e.transitionStep(ctx, id, model.StatusUpcoming, func(s *model.Step) {
		s.Progression = 0
		s.BlockageReason = ""
		s.CompletedAt = nil
	})
}

// CompleteStep finishes a step directly. A step that owns tasks must have
// all of them done first; a task-less step's progression is authoritative
// and is set to 100 here.
func (e *Engine) CompleteStep(ctx context.Context, id int64) (*model.Step, error) {
	var out *model.Step
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		step, err := e.getStep(ctx, st, id)
		if err != nil {
			return err
		}
		if err := checkTransition("step", id, step.Status, model.StatusCompleted); err != nil {
			return err
		}

		tasks, err := st.Tasks().ListByStep(ctx, id)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.Status != model.TaskStatusDone {
				return &apperr.InvalidTransitionError{
					Entity: "step",
					ID:     id,
					From:   string(step.Status),
					To:     string(model.StatusCompleted),
					Reason: "tasks are not all done",
				}
			}
		}

		from := step.Status
		now := e.now()
		step.Status = model.StatusCompleted
		step.Progression = 100
		step.BlockageReason = ""
		step.CompletedAt = &now

		if err := st.Steps().Update(ctx, step); err != nil {
			return err
		}
		if err := e.appendStatusEvent(ctx, st, "step", id, from, model.StatusCompleted); err != nil {
			return err
		}
		if err := e.refreshWorkPackageAfterStepChange(ctx, st, step.WorkPackageID); err != nil {
			return err
		}

		metrics.RecordStatusTransition("step", string(from), string(model.StatusCompleted))
		out = step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteAllStep forces every task of the step to done, then completes the
// step, in one transaction.
func (e *Engine) CompleteAllStep(ctx context.Context, id int64) (*model.Step, error) {
	start := e.now()
	var out *model.Step
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		step, err := e.getStep(ctx, st, id)
		if err != nil {
			return err
		}
		if step.Status == model.StatusCompleted {
			out = step
			return nil
		}

		if err := e.forceCompleteStep(ctx, st, step, e.now()); err != nil {
			return err
		}
		if err := e.refreshWorkPackageAfterStepChange(ctx, st, step.WorkPackageID); err != nil {
			return err
		}
		out = step
		return nil
	})
	if err != nil {
		if apperr.IsNotFound(err) || apperr.IsInvalidTransition(err) {
			return nil, err
		}
		return nil, &apperr.CascadeFailureError{Entity: "step", ID: id, Err: err}
	}

	metrics.RecordCascadeDuration("step", e.now().Sub(start))
	return out, nil
}
