package model

import "time"

// ResourceCategory names a kind of pre-provisioned knowledge context.
type ResourceCategory string

const (
	CategoryDiscovery    ResourceCategory = "discovery"
	CategoryPreselection ResourceCategory = "preselection"
	CategorySelection    ResourceCategory = "selection"
)

// IsValid reports whether the category is part of the catalog.
func (c ResourceCategory) IsValid() bool {
	switch c {
	case CategoryDiscovery, CategoryPreselection, CategorySelection:
		return true
	}
	return false
}

// CompileCategories is the fixed order the compiler allocates in.
var CompileCategories = []ResourceCategory{
	CategoryDiscovery,
	CategoryPreselection,
	CategorySelection,
}

// ResourceSlot is one pre-provisioned external resource, exclusively
// assignable to a single work-package at a time. AssignedTo is non-nil
// iff Status = assigned.
type ResourceSlot struct {
	ID          int64            `json:"id"`
	Category    ResourceCategory `json:"category"`
	Specialty   string           `json:"specialty"`
	ExternalRef string           `json:"external_ref"`
	Status      SlotStatus       `json:"status"`
	AssignedTo  *int64           `json:"assigned_to,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
