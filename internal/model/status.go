package model

// WorkStatus is the shared status graph for work-packages and steps.
type WorkStatus string

const (
	StatusUpcoming   WorkStatus = "upcoming"
	StatusInProgress WorkStatus = "in_progress"
	StatusBlocked    WorkStatus = "blocked"
	StatusCancelled  WorkStatus = "cancelled"
	StatusCompleted  WorkStatus = "completed"
)

// workTransitions defines the legal edges of the shared status graph.
// completed has no outgoing edges; cancelled is reversible via reactivate.
var workTransitions = map[WorkStatus][]WorkStatus{
	StatusUpcoming:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusBlocked, StatusCompleted, StatusCancelled},
	StatusBlocked:    {StatusInProgress, StatusCancelled},
	StatusCancelled:  {StatusUpcoming},
	StatusCompleted:  {},
}

// CanTransitionTo reports whether the edge s -> target is legal.
func (s WorkStatus) CanTransitionTo(target WorkStatus) bool {
	for _, t := range workTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s WorkStatus) IsValid() bool {
	_, ok := workTransitions[s]
	return ok
}

// IsTerminal reports whether the status ends the normal flow.
func (s WorkStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// TaskStatus is the binary task graph: todo <-> done, both directions legal.
type TaskStatus string

const (
	TaskStatusTodo TaskStatus = "todo"
	TaskStatusDone TaskStatus = "done"
)

func (s TaskStatus) IsValid() bool {
	return s == TaskStatusTodo || s == TaskStatusDone
}

// ProjectStatus is the thin top-level lifecycle.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// SlotStatus is the resource slot lifecycle.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusAssigned  SlotStatus = "assigned"
)

// Difficulty grades a step.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}
