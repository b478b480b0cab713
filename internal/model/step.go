package model

import "time"

// Step is an ordered phase within a work-package. Its progression is derived
// from its tasks when it owns tasks; a task-less step is set authoritatively
// by the transition engine.
type Step struct {
	ID               int64      `json:"id"`
	WorkPackageID    int64      `json:"work_package_id"`
	OrderIndex       int        `json:"order_index"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           WorkStatus `json:"status"`
	Progression      int        `json:"progression"` // 0-100
	Difficulty       Difficulty `json:"difficulty"`
	RequiredTools    []string   `json:"required_tools"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	ActualMinutes    int        `json:"actual_minutes"`
	BlockageReason   string     `json:"blockage_reason,omitempty"`
	ProfessionalTip  string     `json:"professional_tip,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
