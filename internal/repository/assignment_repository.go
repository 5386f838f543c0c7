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

const assignmentColumns = `id, asset_id, employee_id, date_assigned, date_returned, status, return_requested_at, return_note, returned_at, returned_by, created_at, updated_at`

// AssignmentRepository provides database access for asset assignments.
// Transitions that touch the asset status run inside one transaction so a
// partial failure cannot leave the pair out of sync.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByID returns an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1 LIMIT 1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment by id: %w", err)
	}
	return &assignment, nil
}

// List returns assignments newest-assigned first. EmployeeID narrows to one
// employee; Limit caps the result when positive.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE 1=1`, assignmentColumns)
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date_assigned DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// Create inserts the assignment and marks the asset ASSIGNED in one
// transaction.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create assignment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQuery = `INSERT INTO assignments (id, asset_id, employee_id, date_assigned, date_returned, status, return_requested_at, return_note, returned_at, returned_by, created_at, updated_at) VALUES (:id, :asset_id, :employee_id, :date_assigned, :date_returned, :status, :return_requested_at, :return_note, :returned_at, :returned_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}

	if err := updateAssetStatus(ctx, tx, assignment.AssetID, models.AssetAssigned); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create assignment: %w", err)
	}
	return nil
}

// Update persists the assignment fields. When assetStatus is non-nil the
// linked asset status is synced in the same transaction.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment, assetStatus *models.AssetStatus) error {
	assignment.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update assignment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateQuery = `UPDATE assignments SET asset_id = :asset_id, employee_id = :employee_id, date_assigned = :date_assigned, date_returned = :date_returned, status = :status, return_requested_at = :return_requested_at, return_note = :return_note, returned_at = :returned_at, returned_by = :returned_by, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}

	if assetStatus != nil {
		if err := updateAssetStatus(ctx, tx, assignment.AssetID, *assetStatus); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update assignment: %w", err)
	}
	return nil
}

func updateAssetStatus(ctx context.Context, tx *sqlx.Tx, assetID string, status models.AssetStatus) error {
	const query = `UPDATE assets SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, assetID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("sync asset status: %w", err)
	}
	return nil
}
