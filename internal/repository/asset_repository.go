package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smartasset/asset-api/internal/models"
)

const assetColumns = `id, name, type, serial_number, status, purchase_date, created_at, updated_at`

// AssetRepository provides database access for the asset registry.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository creates a new instance of AssetRepository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// FindByID returns an asset by identifier.
func (r *AssetRepository) FindByID(ctx context.Context, id string) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = $1 LIMIT 1`, assetColumns)
	var asset models.Asset
	if err := r.db.GetContext(ctx, &asset, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find asset by id: %w", err)
	}
	return &asset, nil
}

// FindByIDs returns assets keyed by id for detail decoration.
func (r *AssetRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Asset, error) {
	result := make(map[string]models.Asset, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM assets WHERE id IN (?)`, assetColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build assets in query: %w", err)
	}
	query = r.db.Rebind(query)

	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, fmt.Errorf("find assets by ids: %w", err)
	}
	for _, a := range assets {
		result[a.ID] = a
	}
	return result, nil
}

// List returns assets matching the filter, newest first. EmployeeID narrows
// to assets with a current assignment for that employee.
func (r *AssetRepository) List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE 1=1`, assetColumns)
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("id IN (SELECT asset_id FROM assignments WHERE employee_id = $%d AND status <> 'RETURNED' AND date_returned IS NULL)", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(serial_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// FindBySerial returns an asset by serial number.
func (r *AssetRepository) FindBySerial(ctx context.Context, serial string) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE serial_number = $1 LIMIT 1`, assetColumns)
	var asset models.Asset
	if err := r.db.GetContext(ctx, &asset, query, serial); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find asset by serial: %w", err)
	}
	return &asset, nil
}

// Create inserts a new asset.
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now

	const query = `INSERT INTO assets (id, name, type, serial_number, status, purchase_date, created_at, updated_at) VALUES (:id, :name, :type, :serial_number, :status, :purchase_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

// Update updates the mutable fields of an asset.
func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	asset.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assets SET name = :name, type = :type, serial_number = :serial_number, status = :status, purchase_date = :purchase_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

// ReferenceCount counts assignments and tickets pointing at the asset.
// Assets with references must not be deleted.
func (r *AssetRepository) ReferenceCount(ctx context.Context, id string) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM assignments WHERE asset_id = $1) + (SELECT COUNT(*) FROM repair_tickets WHERE asset_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count asset references: %w", err)
	}
	return count, nil
}

// Delete removes an asset row.
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assets WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}
