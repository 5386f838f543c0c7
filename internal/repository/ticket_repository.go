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

const ticketColumns = `id, asset_id, issue, status, assigned_technician, created_by, created_at, updated_at, resolution_note, resolved_at, resolved_by`

// TicketRepository provides database access for repair tickets.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new instance of TicketRepository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// FindByID returns a ticket by identifier.
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*models.RepairTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_tickets WHERE id = $1 LIMIT 1`, ticketColumns)
	var ticket models.RepairTicket
	if err := r.db.GetContext(ctx, &ticket, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find ticket by id: %w", err)
	}
	return &ticket, nil
}

// List returns tickets newest first. EmployeeID narrows to tickets the
// employee created, is assigned to, or that concern an asset assigned to
// them. Limit caps the result when positive.
func (r *TicketRepository) List(ctx context.Context, filter models.TicketFilter) ([]models.RepairTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_tickets`, ticketColumns)
	var args []interface{}

	if filter.EmployeeID != "" {
		query += ` WHERE (created_by = $1 OR assigned_technician = $1 OR asset_id IN (SELECT asset_id FROM assignments WHERE employee_id = $1))`
		args = append(args, filter.EmployeeID)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var tickets []models.RepairTicket
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// CountOpen counts tickets currently in the OPEN state.
func (r *TicketRepository) CountOpen(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM repair_tickets WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.TicketOpen); err != nil {
		return 0, fmt.Errorf("count open tickets: %w", err)
	}
	return count, nil
}

// Create inserts a new ticket.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.RepairTicket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now

	const query = `INSERT INTO repair_tickets (id, asset_id, issue, status, assigned_technician, created_by, created_at, updated_at, resolution_note, resolved_at, resolved_by) VALUES (:id, :asset_id, :issue, :status, :assigned_technician, :created_by, :created_at, :updated_at, :resolution_note, :resolved_at, :resolved_by)`
	if _, err := r.db.NamedExecContext(ctx, query, ticket); err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

// Update persists all mutable ticket fields.
func (r *TicketRepository) Update(ctx context.Context, ticket *models.RepairTicket) error {
	ticket.UpdatedAt = time.Now().UTC()
	const query = `UPDATE repair_tickets SET asset_id = :asset_id, issue = :issue, status = :status, assigned_technician = :assigned_technician, resolution_note = :resolution_note, resolved_at = :resolved_at, resolved_by = :resolved_by, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, ticket); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}
