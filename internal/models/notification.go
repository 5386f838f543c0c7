package models

import "time"

// NotificationType enumerates workflow event types. TICKET_UPDATED is also
// used for assignment return-request notices; consumers key link generation
// off entity_type, so the overload is harmless and kept for compatibility.
type NotificationType string

const (
	NotifInfo               NotificationType = "INFO"
	NotifAssetAssigned      NotificationType = "ASSET_ASSIGNED"
	NotifTicketCreated      NotificationType = "TICKET_CREATED"
	NotifTicketUpdated      NotificationType = "TICKET_UPDATED"
	NotifAssignmentReturned NotificationType = "ASSIGNMENT_RETURNED"
)

// Entity type values recognised by link generation.
const (
	EntityAsset      = "asset"
	EntityAssignment = "assignment"
	EntityTicket     = "ticket"
)

// Notification is an append-only per-user message describing a workflow
// event. The only permitted mutation is toggling read_at by its owner.
type Notification struct {
	ID         string           `db:"id" json:"id"`
	UserID     string           `db:"user_id" json:"-"`
	NotifType  NotificationType `db:"notif_type" json:"notif_type"`
	Title      string           `db:"title" json:"title"`
	Message    string           `db:"message" json:"message"`
	EntityType string           `db:"entity_type" json:"entity_type"`
	EntityID   string           `db:"entity_id" json:"entity_id"`
	ReadAt     *time.Time       `db:"read_at" json:"read_at"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// IsRead derives the read flag from read_at.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Link builds the frontend navigation path from the entity reference.
// Unknown or missing references yield an empty string.
func (n *Notification) Link() string {
	if n.EntityID == "" {
		return ""
	}
	switch n.EntityType {
	case EntityAssignment:
		return "/assignments?focus=" + n.EntityID
	case EntityTicket:
		return "/tickets?focus=" + n.EntityID
	case EntityAsset:
		return "/assets?focus=" + n.EntityID
	}
	return ""
}

// NotificationView is the API representation with derived fields.
type NotificationView struct {
	Notification
	IsRead bool   `json:"is_read"`
	URL    string `json:"url"`
	Link   string `json:"link"`
}

// View derives the API representation.
func (n Notification) View() NotificationView {
	link := n.Link()
	return NotificationView{
		Notification: n,
		IsRead:       n.IsRead(),
		URL:          link,
		Link:         link,
	}
}
