package workflow

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage/memory"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewEngine(store, zap.NewNop()), store
}

func seedProject(t *testing.T, store *memory.Store, status model.ProjectStatus) int64 {
	t.Helper()
	id, err := store.Projects().Insert(context.Background(), &model.Project{
		UserID: 1,
		Title:  "Bathroom renovation",
		Status: status,
	})
	if err != nil {
		t.Fatalf("insert project: %v", err)
	}
	return id
}

func seedWorkPackage(t *testing.T, store *memory.Store, projectID int64, status model.WorkStatus) int64 {
	t.Helper()
	id, err := store.WorkPackages().Insert(context.Background(), &model.WorkPackage{
		ProjectID: projectID,
		Title:     "Demolition",
		Status:    status,
	})
	if err != nil {
		t.Fatalf("insert work package: %v", err)
	}
	return id
}

func seedStep(t *testing.T, store *memory.Store, wpID int64, status model.WorkStatus, order int) int64 {
	t.Helper()
	id, err := store.Steps().Insert(context.Background(), &model.Step{
		WorkPackageID: wpID,
		Title:         "Remove tiles",
		Status:        status,
		OrderIndex:    order,
	})
	if err != nil {
		t.Fatalf("insert step: %v", err)
	}
	return id
}

func seedTask(t *testing.T, store *memory.Store, stepID int64, status model.TaskStatus, order int) int64 {
	t.Helper()
	id, err := store.Tasks().Insert(context.Background(), &model.Task{
		StepID:     stepID,
		Title:      "Clear debris",
		Status:     status,
		OrderIndex: order,
	})
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return id
}

func TestStartWorkPackagePromotesProject(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusDraft)
	wpID := seedWorkPackage(t, store, projectID, model.StatusUpcoming)

	wp, err := engine.StartWorkPackage(ctx, wpID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if wp.Status != model.StatusInProgress {
		t.Fatalf("wp status=%s, want in_progress", wp.Status)
	}

	p, _ := store.Projects().Get(ctx, projectID)
	if p.Status != model.ProjectStatusActive {
		t.Fatalf("project status=%s, want active after first start", p.Status)
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusDraft)
	wpID := seedWorkPackage(t, store, projectID, model.StatusUpcoming)

	_, err := engine.CompleteWorkPackage(ctx, wpID)
	if !apperr.IsInvalidTransition(err) {
		t.Fatalf("complete from upcoming err=%v, want InvalidTransitionError", err)
	}

	_, err = engine.BlockWorkPackage(ctx, wpID, "waiting on permit")
	if !apperr.IsInvalidTransition(err) {
		t.Fatalf("block from upcoming err=%v, want InvalidTransitionError", err)
	}
}

func TestUnknownWorkPackage(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.StartWorkPackage(context.Background(), 999)
	if !apperr.IsNotFound(err) {
		t.Fatalf("err=%v, want NotFoundError", err)
	}
}

func TestBlockRequiresReason(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)

	if _, err := engine.BlockWorkPackage(ctx, wpID, ""); err == nil {
		t.Fatal("expected error for empty blockage reason")
	}

	wp, err := engine.BlockWorkPackage(ctx, wpID, "missing materials")
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if wp.Status != model.StatusBlocked || wp.BlockageReason != "missing materials" {
		t.Fatalf("after block: %+v", wp)
	}
}

func TestBlockedToCancelledClearsReason(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)

	if _, err := engine.BlockWorkPackage(ctx, wpID, "missing materials"); err != nil {
		t.Fatalf("block: %v", err)
	}
	wp, err := engine.CancelWorkPackage(ctx, wpID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if wp.Status != model.StatusCancelled {
		t.Fatalf("status=%s, want cancelled", wp.Status)
	}
	if wp.BlockageReason != "" {
		t.Fatalf("blockage reason=%q, want cleared", wp.BlockageReason)
	}
}

func TestReactivateResetsProgression(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	seedStep(t, store, wpID, model.StatusCompleted, 0)

	if _, err := engine.CancelWorkPackage(ctx, wpID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	wp, err := engine.ReactivateWorkPackage(ctx, wpID)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if wp.Status != model.StatusUpcoming || wp.Progression != 0 || wp.CompletedAt != nil {
		t.Fatalf("after reactivate: %+v", wp)
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)

	if _, err := engine.CompleteWorkPackage(ctx, wpID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	for name, verb := range map[string]func(context.Context, int64) (*model.WorkPackage, error){
		"start":      engine.StartWorkPackage,
		"cancel":     engine.CancelWorkPackage,
		"reactivate": engine.ReactivateWorkPackage,
	} {
		if _, err := verb(ctx, wpID); !apperr.IsInvalidTransition(err) {
			t.Fatalf("%s on completed err=%v, want InvalidTransitionError", name, err)
		}
	}
}

func TestCompleteTaskImplicitPromotionAndAutoComplete(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	stepID := seedStep(t, store, wpID, model.StatusUpcoming, 0)
	task1 := seedTask(t, store, stepID, model.TaskStatusTodo, 0)
	task2 := seedTask(t, store, stepID, model.TaskStatusTodo, 1)

	if _, err := engine.CompleteTask(ctx, task1, 25); err != nil {
		t.Fatalf("complete first task: %v", err)
	}
	step, _ := store.Steps().Get(ctx, stepID)
	if step.Status != model.StatusInProgress {
		t.Fatalf("step status=%s, want implicit promotion to in_progress", step.Status)
	}
	if step.Progression != 50 {
		t.Fatalf("step progression=%d, want 50", step.Progression)
	}
	got, _ := store.Tasks().Get(ctx, task1)
	if got.ActualMinutes != 25 {
		t.Fatalf("actual minutes=%d, want 25", got.ActualMinutes)
	}

	if _, err := engine.CompleteTask(ctx, task2, 0); err != nil {
		t.Fatalf("complete second task: %v", err)
	}
	step, _ = store.Steps().Get(ctx, stepID)
	if step.Status != model.StatusCompleted || step.Progression != 100 || step.CompletedAt == nil {
		t.Fatalf("step after last task: %+v", step)
	}

	wp, _ := store.WorkPackages().Get(ctx, wpID)
	if wp.Status != model.StatusCompleted || wp.Progression != 100 {
		t.Fatalf("wp after last step: %+v", wp)
	}
	p, _ := store.Projects().Get(ctx, projectID)
	if p.Status != model.ProjectStatusCompleted || p.Progression != 100 {
		t.Fatalf("project after last wp: %+v", p)
	}
}

func TestCompleteTaskTwiceRejected(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	stepID := seedStep(t, store, wpID, model.StatusInProgress, 0)
	taskID := seedTask(t, store, stepID, model.TaskStatusTodo, 0)
	seedTask(t, store, stepID, model.TaskStatusTodo, 1)

	if _, err := engine.CompleteTask(ctx, taskID, 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := engine.CompleteTask(ctx, taskID, 0); !apperr.IsInvalidTransition(err) {
		t.Fatalf("second complete err=%v, want InvalidTransitionError", err)
	}
}

func TestReopenTaskUnderCompletedStepRejected(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	stepID := seedStep(t, store, wpID, model.StatusInProgress, 0)
	taskID := seedTask(t, store, stepID, model.TaskStatusTodo, 0)

	// completing the only task completes the step
	if _, err := engine.CompleteTask(ctx, taskID, 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	step, _ := store.Steps().Get(ctx, stepID)
	if step.Status != model.StatusCompleted {
		t.Fatalf("step status=%s, want completed", step.Status)
	}

	if _, err := engine.ReopenTask(ctx, taskID); !apperr.IsInvalidTransition(err) {
		t.Fatalf("reopen err=%v, want InvalidTransitionError", err)
	}
}

func TestReopenTaskRecomputesProgression(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	stepID := seedStep(t, store, wpID, model.StatusInProgress, 0)
	task1 := seedTask(t, store, stepID, model.TaskStatusTodo, 0)
	seedTask(t, store, stepID, model.TaskStatusTodo, 1)

	if _, err := engine.CompleteTask(ctx, task1, 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := engine.ReopenTask(ctx, task1); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	step, _ := store.Steps().Get(ctx, stepID)
	if step.Progression != 0 {
		t.Fatalf("progression=%d, want 0 after reopen", step.Progression)
	}
	if step.Status != model.StatusInProgress {
		t.Fatalf("status=%s, reopen does not demote the step", step.Status)
	}
}

func TestCompleteStepRequiresAllTasksDone(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	stepID := seedStep(t, store, wpID, model.StatusInProgress, 0)
	seedTask(t, store, stepID, model.TaskStatusDone, 0)
	seedTask(t, store, stepID, model.TaskStatusTodo, 1)

	_, err := engine.CompleteStep(ctx, stepID)
	if !apperr.IsInvalidTransition(err) {
		t.Fatalf("err=%v, want InvalidTransitionError while tasks remain", err)
	}
}

func TestCompleteTasklessStep(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	stepID := seedStep(t, store, wpID, model.StatusInProgress, 0)

	step, err := engine.CompleteStep(ctx, stepID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if step.Status != model.StatusCompleted || step.Progression != 100 {
		t.Fatalf("taskless step after complete: %+v", step)
	}
}

func TestCompleteAllWorkPackageCascade(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	step1 := seedStep(t, store, wpID, model.StatusInProgress, 0)
	step2 := seedStep(t, store, wpID, model.StatusUpcoming, 1)
	seedTask(t, store, step1, model.TaskStatusTodo, 0)
	seedTask(t, store, step1, model.TaskStatusDone, 1)
	seedTask(t, store, step2, model.TaskStatusTodo, 0)

	wp, err := engine.CompleteAllWorkPackage(ctx, wpID)
	if err != nil {
		t.Fatalf("complete all: %v", err)
	}
	if wp.Status != model.StatusCompleted || wp.Progression != 100 || wp.CompletedAt == nil {
		t.Fatalf("wp after cascade: %+v", wp)
	}

	for _, stepID := range []int64{step1, step2} {
		step, _ := store.Steps().Get(ctx, stepID)
		if step.Status != model.StatusCompleted || step.Progression != 100 {
			t.Fatalf("step %d after cascade: %+v", stepID, step)
		}
		tasks, _ := store.Tasks().ListByStep(ctx, stepID)
		for _, task := range tasks {
			if task.Status != model.TaskStatusDone {
				t.Fatalf("task %d status=%s, want done", task.ID, task.Status)
			}
		}
	}

	p, _ := store.Projects().Get(ctx, projectID)
	if p.Status != model.ProjectStatusCompleted {
		t.Fatalf("project status=%s, want completed", p.Status)
	}

	haveWP := false
	for _, e := range store.PublishedEvents() {
		if e.RoutingKey == "workpackage.status_changed" && e.AggregateID == wpID {
			haveWP = true
		}
	}
	if !haveWP {
		t.Fatal("no work package status event recorded for the cascade")
	}
}

func TestCompleteAllWorkPackageIdempotent(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)

	if _, err := engine.CompleteAllWorkPackage(ctx, wpID); err != nil {
		t.Fatalf("first cascade: %v", err)
	}
	before := len(store.PublishedEvents())
	wp, err := engine.CompleteAllWorkPackage(ctx, wpID)
	if err != nil {
		t.Fatalf("second cascade: %v", err)
	}
	if wp.Status != model.StatusCompleted {
		t.Fatalf("status=%s, want completed", wp.Status)
	}
	if got := len(store.PublishedEvents()); got != before {
		t.Fatalf("events grew from %d to %d on idempotent cascade", before, got)
	}
}

// failingStore passes everything through to the real store except task
// updates, which fail. Used to verify cascades roll back completely.
type failingStore struct {
	storage.Store
}

func (f *failingStore) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	return f.Store.WithTx(ctx, func(st storage.Store) error {
		return fn(&failingStore{Store: st})
	})
}

func (f *failingStore) Tasks() storage.TaskRepo {
	return failingTaskRepo{f.Store.Tasks()}
}

type failingTaskRepo struct {
	storage.TaskRepo
}

func (r failingTaskRepo) Update(ctx context.Context, task *model.Task) error {
	return errors.New("write refused")
}

func TestCascadeFailureRollsBackEverything(t *testing.T) {
	mem := memory.NewStore()
	engine := NewEngine(&failingStore{Store: mem}, zap.NewNop())
	ctx := context.Background()
	projectID := seedProject(t, mem, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, mem, projectID, model.StatusInProgress)
	stepID := seedStep(t, mem, wpID, model.StatusInProgress, 0)
	seedTask(t, mem, stepID, model.TaskStatusTodo, 0)

	_, err := engine.CompleteAllWorkPackage(ctx, wpID)
	if !apperr.IsCascadeFailure(err) {
		t.Fatalf("err=%v, want CascadeFailureError", err)
	}

	wp, _ := mem.WorkPackages().Get(ctx, wpID)
	if wp.Status != model.StatusInProgress {
		t.Fatalf("wp status=%s, want untouched in_progress", wp.Status)
	}
	step, _ := mem.Steps().Get(ctx, stepID)
	if step.Status != model.StatusInProgress {
		t.Fatalf("step status=%s, want untouched in_progress", step.Status)
	}
	if got := len(mem.PublishedEvents()); got != 0 {
		t.Fatalf("events=%d, want none after rollback", got)
	}
}

func TestCompleteAllStepCascade(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	projectID := seedProject(t, store, model.ProjectStatusActive)
	wpID := seedWorkPackage(t, store, projectID, model.StatusInProgress)
	stepID := seedStep(t, store, wpID, model.StatusInProgress, 0)
	seedTask(t, store, stepID, model.TaskStatusTodo, 0)
	seedTask(t, store, stepID, model.TaskStatusTodo, 1)

	step, err := engine.CompleteAllStep(ctx, stepID)
	if err != nil {
		t.Fatalf("complete all: %v", err)
	}
	if step.Status != model.StatusCompleted || step.Progression != 100 {
		t.Fatalf("step after cascade: %+v", step)
	}
	tasks, _ := store.Tasks().ListByStep(ctx, stepID)
	for _, task := range tasks {
		if task.Status != model.TaskStatusDone {
			t.Fatalf("task %d status=%s, want done", task.ID, task.Status)
		}
	}
	// the only step completing also completes the work package
	wp, _ := store.WorkPackages().Get(ctx, wpID)
	if wp.Status != model.StatusCompleted {
		t.Fatalf("wp status=%s, want completed", wp.Status)
	}
}
