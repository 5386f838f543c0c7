package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smartasset/asset-api/internal/models"
)

const inventoryColumns = `id, item_type, quantity, threshold, created_at, updated_at`

// InventoryRepository provides database access for consumable stock.
type InventoryRepository struct {
	db *sqlx.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// List returns all inventory items ordered by item type.
func (r *InventoryRepository) List(ctx context.Context) ([]models.InventoryItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_items ORDER BY item_type`, inventoryColumns)
	var items []models.InventoryItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	return items, nil
}

// FindByID returns an item by identifier.
func (r *InventoryRepository) FindByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_items WHERE id = $1 LIMIT 1`, inventoryColumns)
	var item models.InventoryItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find inventory item by id: %w", err)
	}
	return &item, nil
}

// FindByType returns an item by its unique item type.
func (r *InventoryRepository) FindByType(ctx context.Context, itemType string) (*models.InventoryItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_items WHERE item_type = $1 LIMIT 1`, inventoryColumns)
	var item models.InventoryItem
	if err := r.db.GetContext(ctx, &item, query, itemType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find inventory item by type: %w", err)
	}
	return &item, nil
}

// Create inserts a new inventory item.
func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO inventory_items (id, item_type, quantity, threshold, created_at, updated_at) VALUES (:id, :item_type, :quantity, :threshold, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create inventory item: %w", err)
	}
	return nil
}

// Update updates the mutable fields of an inventory item.
func (r *InventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE inventory_items SET item_type = :item_type, quantity = :quantity, threshold = :threshold, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	return nil
}

// Delete removes an inventory item.
func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM inventory_items WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	return nil
}
