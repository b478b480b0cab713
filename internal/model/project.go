package model

import "time"

// Project is the top-level unit of work (a renovation site). Progression is
// derived from its work-packages and never written directly by callers.
type Project struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	Title           string        `json:"title"`
	Progression     int           `json:"progression"` // 0-100, derived
	EstimatedDays   int           `json:"estimated_days"`
	EstimatedBudget float64       `json:"estimated_budget"`
	Status          ProjectStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// WorkPackage is a distinct scope of work within a project. It is the unit
// resource slots are assigned to; the three *Ref fields hold the external
// knowledge-context references persisted after a successful compile.
type WorkPackage struct {
	ID              int64      `json:"id"`
	ProjectID       int64      `json:"project_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          WorkStatus `json:"status"`
	Progression     int        `json:"progression"` // 0-100, derived from steps
	EstimatedHours  float64    `json:"estimated_hours"`
	ActualHours     float64    `json:"actual_hours"`
	EstimatedCost   float64    `json:"estimated_cost"`
	ActualCost      float64    `json:"actual_cost"`
	BlockageReason  string     `json:"blockage_reason,omitempty"` // non-empty iff status = blocked
	OrderIndex      int        `json:"order_index"`
	DiscoveryRef    string     `json:"discovery_ref,omitempty"`
	PreselectionRef string     `json:"preselection_ref,omitempty"`
	SelectionRef    string     `json:"selection_ref,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
