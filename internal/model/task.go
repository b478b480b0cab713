package model

import "time"

// Task is the smallest trackable unit of work within a step.
type Task struct {
	ID               int64      `json:"id"`
	StepID           int64      `json:"step_id"`
	OrderIndex       int        `json:"order_index"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           TaskStatus `json:"status"`
	IsCritical       bool       `json:"is_critical"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	ActualMinutes    int        `json:"actual_minutes"`
	RequiredTools    []string   `json:"required_tools"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
