package models

import "time"

// AssignmentStatus enumerates the return workflow states.
type AssignmentStatus string

const (
	AssignmentAssigned        AssignmentStatus = "ASSIGNED"
	AssignmentReturnRequested AssignmentStatus = "RETURN_REQUESTED"
	AssignmentReturned        AssignmentStatus = "RETURNED"
)

// Assignment links one asset to one employee for a loan period.
// date_returned is the legacy column; status/returned_at are the newer pair.
// Transitions keep both consistent.
type Assignment struct {
	ID                string           `db:"id" json:"id"`
	AssetID           string           `db:"asset_id" json:"asset"`
	EmployeeID        string           `db:"employee_id" json:"employee"`
	DateAssigned      time.Time        `db:"date_assigned" json:"date_assigned"`
	DateReturned      *time.Time       `db:"date_returned" json:"date_returned"`
	Status            AssignmentStatus `db:"status" json:"status"`
	ReturnRequestedAt *time.Time       `db:"return_requested_at" json:"return_requested_at"`
	ReturnNote        string           `db:"return_note" json:"return_note"`
	ReturnedAt        *time.Time       `db:"returned_at" json:"returned_at"`
	ReturnedBy        *string          `db:"returned_by" json:"returned_by"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// Returned reports whether the assignment is terminal, by either field pair.
func (a *Assignment) Returned() bool {
	return a.Status == AssignmentReturned || a.DateReturned != nil
}

// AssignmentDetail is the canonical API representation with embedded
// detail objects.
type AssignmentDetail struct {
	Assignment
	AssetDetail      *Asset      `json:"asset_detail,omitempty"`
	EmployeeDetail   *UserPublic `json:"employee_detail,omitempty"`
	ReturnedByDetail *UserPublic `json:"returned_by_detail,omitempty"`
}

// AssignmentFilter captures list filters; EmployeeID is honoured for admin
// callers only.
type AssignmentFilter struct {
	EmployeeID string
	Limit      int
}
