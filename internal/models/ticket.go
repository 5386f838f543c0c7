package models

import "time"

// TicketStatus enumerates the repair workflow states.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
	TicketClosed     TicketStatus = "CLOSED"
)

// RepairTicket is a maintenance request against an asset.
type RepairTicket struct {
	ID                 string       `db:"id" json:"id"`
	AssetID            string       `db:"asset_id" json:"asset"`
	Issue              string       `db:"issue" json:"issue"`
	Status             TicketStatus `db:"status" json:"status"`
	AssignedTechnician *string      `db:"assigned_technician" json:"assigned_technician"`
	CreatedBy          string       `db:"created_by" json:"created_by"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
	ResolutionNote     string       `db:"resolution_note" json:"resolution_note"`
	ResolvedAt         *time.Time   `db:"resolved_at" json:"resolved_at"`
	ResolvedBy         *string      `db:"resolved_by" json:"resolved_by"`
}

// TicketDetail is the canonical API representation with embedded details.
type TicketDetail struct {
	RepairTicket
	AssetDetail              *Asset      `json:"asset_detail,omitempty"`
	CreatedByDetail          *UserPublic `json:"created_by_detail,omitempty"`
	AssignedTechnicianDetail *UserPublic `json:"assigned_technician_detail,omitempty"`
	ResolvedByDetail         *UserPublic `json:"resolved_by_detail,omitempty"`
}

// TicketFilter captures list filters; EmployeeID narrows to tickets that
// touch the employee (creator, technician, or an asset assigned to them).
type TicketFilter struct {
	EmployeeID string
	Limit      int
}
