// Package workflow is the single authority for status changes across the
// project -> work-package -> step -> task tree. Every mutation goes through
// the engine; callers never write status or progression fields directly.
// Cross-entity side effects (implicit promotion, progression roll-up,
// auto-completion at 100%) are rules evaluated here, not at call sites.
package workflow

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/progress"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
)

type Engine struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(store storage.Store, logger *zap.Logger) *Engine {
	return &Engine{store: store, logger: logger, now: time.Now}
}

// statusChangedPayload is the outbox payload for every status transition.
type statusChangedPayload struct {
	Level    string    `json:"level"`
	EntityID int64     `json:"entity_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	At       time.Time `json:"at"`
}

func (e *Engine) appendStatusEvent(ctx context.Context, st storage.Store, level string, id int64, from, to model.WorkStatus) error {
	payload, err := json.Marshal(statusChangedPayload{
		Level:    level,
		EntityID: id,
		From:     string(from),
		To:       string(to),
		At:       e.now(),
	})
	if err != nil {
		return err
	}
	return st.Events().Append(ctx, storage.DomainEvent{
		AggregateType: level,
		AggregateID:   id,
		RoutingKey:    level + ".status_changed",
		Payload:       payload,
	})
}

// taskToggledPayload is the outbox payload for a task flip in either direction.
type taskToggledPayload struct {
	TaskID int64     `json:"task_id"`
	StepID int64     `json:"step_id"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

func (e *Engine) appendTaskToggledEvent(ctx context.Context, st storage.Store, task *model.Task) error {
	payload, err := json.Marshal(taskToggledPayload{
		TaskID: task.ID,
		StepID: task.StepID,
		Status: string(task.Status),
		At:     e.now(),
	})
	if err != nil {
		return err
	}
	return st.Events().Append(ctx, storage.DomainEvent{
		AggregateType: "task",
		AggregateID:   task.ID,
		RoutingKey:    "task.toggled",
		Payload:       payload,
	})
}

func (e *Engine) getWorkPackage(ctx context.Context, st storage.Store, id int64) (*model.WorkPackage, error) {
	wp, err := st.WorkPackages().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		return nil, &apperr.NotFoundError{Entity: "work_package", ID: id}
	}
	return wp, nil
}

func (e *Engine) getStep(ctx context.Context, st storage.Store, id int64) (*model.Step, error) {
	s, err := st.Steps().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &apperr.NotFoundError{Entity: "step", ID: id}
	}
	return s, nil
}

func (e *Engine) getTask(ctx context.Context, st storage.Store, id int64) (*model.Task, error) {
	t, err := st.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &apperr.NotFoundError{Entity: "task", ID: id}
	}
	return t, nil
}

// checkTransition validates an edge of the shared graph.
func checkTransition(entity string, id int64, from, to model.WorkStatus) error {
	if !from.CanTransitionTo(to) {
		return &apperr.InvalidTransitionError{
			Entity: entity,
			ID:     id,
			From:   string(from),
			To:     string(to),
		}
	}
	return nil
}

// refreshProjectAfterChange recomputes the project's derived progression from
// its work-packages and promotes/completes the project when the rules say so:
// draft -> active once any work-package has started, active -> completed when
// every work-package is done.
func (e *Engine) refreshProjectAfterChange(ctx context.Context, st storage.Store, projectID int64) error {
	p, err := st.Projects().Get(ctx, projectID)
	if err != nil || p == nil {
		return err
	}
	wps, err := st.WorkPackages().ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	completed, started := 0, 0
	for _, wp := range wps {
		if wp.Status == model.StatusCompleted {
			completed++
		}
		if wp.Status != model.StatusUpcoming {
			started++
		}
	}

	p.Progression = progress.PercentComplete(completed, len(wps))
	switch {
	case p.Status == model.ProjectStatusDraft && started > 0:
		p.Status = model.ProjectStatusActive
	case p.Status == model.ProjectStatusActive && len(wps) > 0 && completed == len(wps):
		p.Status = model.ProjectStatusCompleted
	}

	return st.Projects().Update(ctx, p)
}
