// Package progress computes derived roll-up statistics for any entity level.
// Everything here is a pure function of child state: outputs are recomputed
// on read and are never the source of truth.
package progress

import (
	"math"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

// PercentComplete returns round(100 * completed / total), and 0 for an empty
// collection.
func PercentComplete(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Ratio returns actual/estimated as a whole percent. An estimate of zero
// reports 0 rather than infinity.
func Ratio(actual, estimated float64) int {
	if estimated == 0 {
		return 0
	}
	return int(math.Round(100 * actual / estimated))
}

// StatusCounts tallies children of the shared work-status graph.
type StatusCounts struct {
	Upcoming   int `json:"upcoming"`
	InProgress int `json:"in_progress"`
	Blocked    int `json:"blocked"`
	Cancelled  int `json:"cancelled"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

func countStatuses(statuses []model.WorkStatus) StatusCounts {
	var c StatusCounts
	for _, s := range statuses {
		switch s {
		case model.StatusUpcoming:
			c.Upcoming++
		case model.StatusInProgress:
			c.InProgress++
		case model.StatusBlocked:
			c.Blocked++
		case model.StatusCancelled:
			c.Cancelled++
		case model.StatusCompleted:
			c.Completed++
		}
		c.Total++
	}
	return c
}

// contribution is one child's share of a parent's blended "actual so far":
// completed children count in full (actual, or estimated when no actual was
// recorded), started children count estimated scaled by their progression,
// unstarted and cancelled children count 0.
type contribution struct {
	status      model.WorkStatus
	progression int
	estimated   float64
	actual      float64
}

func blendedActual(children []contribution) float64 {
	var total float64
	for _, c := range children {
		switch c.status {
		case model.StatusCompleted:
			if c.actual > 0 {
				total += c.actual
			} else {
				total += c.estimated
			}
		case model.StatusInProgress, model.StatusBlocked:
			total += c.estimated * float64(c.progression) / 100
		}
	}
	return total
}

// StepProgress is the derived view of one step.
type StepProgress struct {
	StepID             int64  `json:"step_id"`
	Status             string `json:"status"`
	TasksTotal         int    `json:"tasks_total"`
	TasksDone          int    `json:"tasks_done"`
	Percent            int    `json:"percent"`
	TimeRatioPct       int    `json:"time_ratio_pct"`
	ActualSoFarMinutes int    `json:"actual_so_far_minutes"`
}

func AggregateStep(step *model.Step, tasks []model.Task) StepProgress {
	done := 0
	actualSoFar := 0
	for _, t := range tasks {
		if t.Status == model.TaskStatusDone {
			done++
			if t.ActualMinutes > 0 {
				actualSoFar += t.ActualMinutes
			} else {
				actualSoFar += t.EstimatedMinutes
			}
		}
	}

	percent := step.Progression
	if len(tasks) > 0 {
		percent = PercentComplete(done, len(tasks))
	}

	return StepProgress{
		StepID:             step.ID,
		Status:             string(step.Status),
		TasksTotal:         len(tasks),
		TasksDone:          done,
		Percent:            percent,
		TimeRatioPct:       Ratio(float64(step.ActualMinutes), float64(step.EstimatedMinutes)),
		ActualSoFarMinutes: actualSoFar,
	}
}

// WorkPackageProgress is the derived view of one work-package.
type WorkPackageProgress struct {
	WorkPackageID      int64        `json:"work_package_id"`
	Status             string       `json:"status"`
	Steps              StatusCounts `json:"steps"`
	Percent            int          `json:"percent"`
	TimeRatioPct       int          `json:"time_ratio_pct"`
	CostRatioPct       int          `json:"cost_ratio_pct"`
	ActualSoFarMinutes int          `json:"actual_so_far_minutes"`
}

func AggregateWorkPackage(wp *model.WorkPackage, steps []model.Step) WorkPackageProgress {
	statuses := make([]model.WorkStatus, 0, len(steps))
	contribs := make([]contribution, 0, len(steps))
	for _, s := range steps {
		statuses = append(statuses, s.Status)
		contribs = append(contribs, contribution{
			status:      s.Status,
			progression: s.Progression,
			estimated:   float64(s.EstimatedMinutes),
			actual:      float64(s.ActualMinutes),
		})
	}

	counts := countStatuses(statuses)
	return WorkPackageProgress{
		WorkPackageID:      wp.ID,
		Status:             string(wp.Status),
		Steps:              counts,
		Percent:            PercentComplete(counts.Completed, counts.Total),
		TimeRatioPct:       Ratio(wp.ActualHours, wp.EstimatedHours),
		CostRatioPct:       Ratio(wp.ActualCost, wp.EstimatedCost),
		ActualSoFarMinutes: int(math.Round(blendedActual(contribs))),
	}
}

// ProjectProgress is the derived view of one project.
type ProjectProgress struct {
	ProjectID        int64        `json:"project_id"`
	Status           string       `json:"status"`
	WorkPackages     StatusCounts `json:"work_packages"`
	Percent          int          `json:"percent"`
	CostRatioPct     int          `json:"cost_ratio_pct"`
	ActualSoFarHours float64      `json:"actual_so_far_hours"`
	ActualSoFarCost  float64      `json:"actual_so_far_cost"`
}

func AggregateProject(p *model.Project, wps []model.WorkPackage) ProjectProgress {
	statuses := make([]model.WorkStatus, 0, len(wps))
	hours := make([]contribution, 0, len(wps))
	costs := make([]contribution, 0, len(wps))
	var actualCost float64
	for _, wp := range wps {
		statuses = append(statuses, wp.Status)
		hours = append(hours, contribution{wp.Status, wp.Progression, wp.EstimatedHours, wp.ActualHours})
		costs = append(costs, contribution{wp.Status, wp.Progression, wp.EstimatedCost, wp.ActualCost})
		actualCost += wp.ActualCost
	}

	counts := countStatuses(statuses)
	return ProjectProgress{
		ProjectID:        p.ID,
		Status:           string(p.Status),
		WorkPackages:     counts,
		Percent:          PercentComplete(counts.Completed, counts.Total),
		CostRatioPct:     Ratio(actualCost, p.EstimatedBudget),
		ActualSoFarHours: blendedActual(hours),
		ActualSoFarCost:  blendedActual(costs),
	}
}
