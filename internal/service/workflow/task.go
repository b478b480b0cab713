package workflow

import (
	"context"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/progress"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/metrics"
)

// CompleteTask flips a task todo -> done, optionally recording the actual
// duration spent. Side effects evaluated in the same transaction:
//   - a step still upcoming is implicitly promoted to in_progress (a step
//     cannot stay upcoming once one of its tasks is touched)
//   - the step's derived progression is recomputed, and the step
//     auto-completes when the last task is done
//   - the work-package and project roll-ups are refreshed
func (e *Engine) CompleteTask(ctx context.Context, id int64, actualMinutes int) (*model.Task, error) {
	var out *model.Task
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		task, err := e.getTask(ctx, st, id)
		if err != nil {
			return err
		}
		if task.Status == model.TaskStatusDone {
			return &apperr.InvalidTransitionError{
				Entity: "task",
				ID:     id,
				From:   string(model.TaskStatusDone),
				To:     string(model.TaskStatusDone),
			}
		}

		step, err := e.getStep(ctx, st, task.StepID)
		if err != nil {
			return err
		}
		if step.Status == model.StatusCompleted || step.Status == model.StatusCancelled {
			return &apperr.InvalidTransitionError{
				Entity: "task",
				ID:     id,
				From:   string(task.Status),
				To:     string(model.TaskStatusDone),
				Reason: "parent step is " + string(step.Status),
			}
		}

		task.Status = model.TaskStatusDone
		if actualMinutes > 0 {
			task.ActualMinutes = actualMinutes
		}
		if err := st.Tasks().Update(ctx, task); err != nil {
			return err
		}
		metrics.RecordStatusTransition("task", string(model.TaskStatusTodo), string(model.TaskStatusDone))
		if err := e.appendTaskToggledEvent(ctx, st, task); err != nil {
			return err
		}

		if err := e.refreshStepAfterTaskChange(ctx, st, step); err != nil {
			return err
		}

		out = task
		return nil
	})
	if err != nil {
		if apperr.IsNotFound(err) || apperr.IsInvalidTransition(err) {
			return nil, err
		}
		return nil, &apperr.CascadeFailureError{Entity: "task", ID: id, Err: err}
	}
	return out, nil
}

// ReopenTask flips a task done -> todo. Reopening under a completed step is
// rejected: there is no path out of completed.
func (e *Engine) ReopenTask(ctx context.Context, id int64) (*model.Task, error) {
	var out *model.Task
	err := e.store.WithTx(ctx, func(st storage.Store) error {
		task, err := e.getTask(ctx, st, id)
		if err != nil {
			return err
		}
		if task.Status == model.TaskStatusTodo {
			return &apperr.InvalidTransitionError{
				Entity: "task",
				ID:     id,
				From:   string(model.TaskStatusTodo),
				To:     string(model.TaskStatusTodo),
			}
		}

		step, err := e.getStep(ctx, st, task.StepID)
		if err != nil {
			return err
		}
		if step.Status == model.StatusCompleted {
			return &apperr.InvalidTransitionError{
				Entity: "task",
				ID:     id,
				From:   string(model.TaskStatusDone),
				To:     string(model.TaskStatusTodo),
				Reason: "parent step is completed",
			}
		}

		task.Status = model.TaskStatusTodo
		if err := st.Tasks().Update(ctx, task); err != nil {
			return err
		}
		metrics.RecordStatusTransition("task", string(model.TaskStatusDone), string(model.TaskStatusTodo))
		if err := e.appendTaskToggledEvent(ctx, st, task); err != nil {
			return err
		}

		if err := e.refreshStepAfterTaskChange(ctx, st, step); err != nil {
			return err
		}

		out = task
		return nil
	})
	if err != nil {
		if apperr.IsNotFound(err) || apperr.IsInvalidTransition(err) {
			return nil, err
		}
		return nil, &apperr.CascadeFailureError{Entity: "task", ID: id, Err: err}
	}
	return out, nil
}

// refreshStepAfterTaskChange recomputes the step's task-derived progression,
// applies the implicit-promotion and auto-completion rules, and rolls the
// change up into the work-package.
func (e *Engine) refreshStepAfterTaskChange(ctx context.Context, st storage.Store, step *model.Step) error {
	tasks, err := st.Tasks().ListByStep(ctx, step.ID)
	if err != nil {
		return err
	}

	done := 0
	for _, t := range tasks {
		if t.Status == model.TaskStatusDone {
			done++
		}
	}
	step.Progression = progress.PercentComplete(done, len(tasks))

	if step.Status == model.StatusUpcoming && done > 0 {
		step.Status = model.StatusInProgress
		if err := e.appendStatusEvent(ctx, st, "step", step.ID, model.StatusUpcoming, model.StatusInProgress); err != nil {
			return err
		}
		metrics.RecordStatusTransition("step", string(model.StatusUpcoming), string(model.StatusInProgress))
	}

	if step.Status == model.StatusInProgress && len(tasks) > 0 && done == len(tasks) {
		now := e.now()
		step.Status = model.StatusCompleted
		step.CompletedAt = &now
		if err := e.appendStatusEvent(ctx, st, "step", step.ID, model.StatusInProgress, model.StatusCompleted); err != nil {
			return err
		}
		metrics.RecordStatusTransition("step", string(model.StatusInProgress), string(model.StatusCompleted))
	}

	if err := st.Steps().Update(ctx, step); err != nil {
		return err
	}
	return e.refreshWorkPackageAfterStepChange(ctx, st, step.WorkPackageID)
}
