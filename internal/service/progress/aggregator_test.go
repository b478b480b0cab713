package progress

import (
	"testing"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

func TestPercentCompleteBoundaries(t *testing.T) {
	if got := PercentComplete(0, 0); got != 0 {
		t.Fatalf("PercentComplete(0,0)=%d, want 0", got)
	}
	if got := PercentComplete(1, 3); got != 33 {
		t.Fatalf("PercentComplete(1,3)=%d, want 33", got)
	}
	if got := PercentComplete(2, 3); got != 67 {
		t.Fatalf("PercentComplete(2,3)=%d, want 67", got)
	}
	if got := PercentComplete(3, 3); got != 100 {
		t.Fatalf("PercentComplete(3,3)=%d, want 100", got)
	}
}

func TestPercentCompleteMonotonic(t *testing.T) {
	prev := 0
	for done := 0; done <= 10; done++ {
		got := PercentComplete(done, 10)
		if got < prev {
			t.Fatalf("PercentComplete(%d,10)=%d regressed below %d", done, got, prev)
		}
		prev = got
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(50, 0); got != 0 {
		t.Fatalf("Ratio with zero estimate=%d, want 0", got)
	}
	if got := Ratio(50, 100); got != 50 {
		t.Fatalf("Ratio(50,100)=%d, want 50", got)
	}
	if got := Ratio(150, 100); got != 150 {
		t.Fatalf("Ratio(150,100)=%d, want 150", got)
	}
}

func TestAggregateStepTasklessUsesOwnProgression(t *testing.T) {
	step := &model.Step{ID: 1, Status: model.StatusInProgress, Progression: 40}
	view := AggregateStep(step, nil)
	if view.Percent != 40 {
		t.Fatalf("taskless step percent=%d, want 40", view.Percent)
	}
	if view.TasksTotal != 0 || view.TasksDone != 0 {
		t.Fatalf("taskless step counts=%d/%d, want 0/0", view.TasksDone, view.TasksTotal)
	}
}

func TestAggregateStepCountsAndActual(t *testing.T) {
	step := &model.Step{ID: 1, Status: model.StatusInProgress, EstimatedMinutes: 120, ActualMinutes: 60}
	tasks := []model.Task{
		{Status: model.TaskStatusDone, EstimatedMinutes: 30, ActualMinutes: 45},
		{Status: model.TaskStatusDone, EstimatedMinutes: 30},
		{Status: model.TaskStatusTodo, EstimatedMinutes: 30},
	}
	view := AggregateStep(step, tasks)
	if view.Percent != 67 {
		t.Fatalf("percent=%d, want 67", view.Percent)
	}
	// done tasks count actual when recorded, estimated otherwise
	if view.ActualSoFarMinutes != 75 {
		t.Fatalf("actual so far=%d, want 75", view.ActualSoFarMinutes)
	}
	if view.TimeRatioPct != 50 {
		t.Fatalf("time ratio=%d, want 50", view.TimeRatioPct)
	}
}

func TestAggregateWorkPackageBlendedActual(t *testing.T) {
	wp := &model.WorkPackage{ID: 7, Status: model.StatusInProgress}
	steps := []model.Step{
		{Status: model.StatusCompleted, EstimatedMinutes: 60, ActualMinutes: 50},
		{Status: model.StatusCompleted, EstimatedMinutes: 40},
		{Status: model.StatusInProgress, Progression: 50, EstimatedMinutes: 60},
		{Status: model.StatusUpcoming, EstimatedMinutes: 100},
		{Status: model.StatusCancelled, EstimatedMinutes: 100},
	}
	view := AggregateWorkPackage(wp, steps)

	// 50 (actual) + 40 (estimate stands in) + 30 (60 at 50%) + 0 + 0
	if view.ActualSoFarMinutes != 120 {
		t.Fatalf("blended actual=%d, want 120", view.ActualSoFarMinutes)
	}
	if view.Steps.Completed != 2 || view.Steps.Total != 5 {
		t.Fatalf("counts=%+v, want 2 completed of 5", view.Steps)
	}
	if view.Percent != 40 {
		t.Fatalf("percent=%d, want 40", view.Percent)
	}
}

func TestAggregateProjectEmpty(t *testing.T) {
	p := &model.Project{ID: 3, Status: model.ProjectStatusDraft}
	view := AggregateProject(p, nil)
	if view.Percent != 0 {
		t.Fatalf("empty project percent=%d, want 0", view.Percent)
	}
	if view.CostRatioPct != 0 {
		t.Fatalf("empty project cost ratio=%d, want 0", view.CostRatioPct)
	}
}

func TestAggregateProjectCostRatio(t *testing.T) {
	p := &model.Project{ID: 3, Status: model.ProjectStatusActive, EstimatedBudget: 2000}
	wps := []model.WorkPackage{
		{Status: model.StatusCompleted, EstimatedCost: 500, ActualCost: 600},
		{Status: model.StatusInProgress, Progression: 25, EstimatedCost: 400, ActualCost: 150},
	}
	view := AggregateProject(p, wps)
	if view.CostRatioPct != 38 {
		t.Fatalf("cost ratio=%d, want 38", view.CostRatioPct)
	}
	// 600 (actual) + 100 (400 at 25%)
	if view.ActualSoFarCost != 700 {
		t.Fatalf("blended cost=%v, want 700", view.ActualSoFarCost)
	}
}
