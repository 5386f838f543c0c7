package models

import "time"

// AssetStatus enumerates the lifecycle states of a physical asset.
type AssetStatus string

const (
	AssetAvailable AssetStatus = "AVAILABLE"
	AssetAssigned  AssetStatus = "ASSIGNED"
	AssetRepair    AssetStatus = "REPAIR"
	AssetRetired   AssetStatus = "RETIRED"
)

// Asset represents a trackable physical item assignable to an employee.
// Status is denormalised: assignment transitions keep it in sync.
type Asset struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Type         string      `db:"type" json:"type"`
	SerialNumber string      `db:"serial_number" json:"serial_number"`
	Status       AssetStatus `db:"status" json:"status"`
	PurchaseDate *time.Time  `db:"purchase_date" json:"purchase_date,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Label renders the display form used in notification messages.
func (a *Asset) Label() string {
	return a.Name + " (" + a.SerialNumber + ")"
}

// AssetFilter captures list filters. EmployeeID restricts to assets with an
// assignment for that employee; for non-admin callers the service forces it
// to the caller regardless of input.
type AssetFilter struct {
	Search     string
	Status     *AssetStatus
	EmployeeID string
}
