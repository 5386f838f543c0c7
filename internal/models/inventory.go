package models

import "time"

// InventoryItem tracks consumable stock for one item type.
type InventoryItem struct {
	ID        string    `db:"id" json:"id"`
	ItemType  string    `db:"item_type" json:"item_type"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Threshold int       `db:"threshold" json:"threshold"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
