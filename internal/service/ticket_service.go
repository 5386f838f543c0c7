package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type ticketRepository interface {
	FindByID(ctx context.Context, id string) (*models.RepairTicket, error)
	List(ctx context.Context, filter models.TicketFilter) ([]models.RepairTicket, error)
	Create(ctx context.Context, ticket *models.RepairTicket) error
	Update(ctx context.Context, ticket *models.RepairTicket) error
}

// CreateTicketRequest is the payload for opening a repair ticket.
type CreateTicketRequest struct {
	AssetID            string  `json:"asset" validate:"required"`
	Issue              string  `json:"issue" validate:"required"`
	AssignedTechnician *string `json:"assigned_technician"`
}

// UpdateTicketRequest is the admin edit payload; nil fields are untouched.
type UpdateTicketRequest struct {
	Issue              *string `json:"issue"`
	Status             *string `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	AssignedTechnician *string `json:"assigned_technician"`
}

// ResolutionRequest carries the optional note for mark-done.
type ResolutionRequest struct {
	Note string `json:"note"`
}

// TicketService owns the repair ticket workflow: creation rules by role,
// admin edits with change-driven notifications, and the mark-done /
// approve-close transitions.
type TicketService struct {
	repo      ticketRepository
	assets    assetDirectory
	users     employeeDirectory
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
	avatars   string
}

// NewTicketService constructs a TicketService.
func NewTicketService(repo ticketRepository, assets assetDirectory, users employeeDirectory, notif notifier, validate *validator.Validate, logger *zap.Logger, avatarBase string) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TicketService{repo: repo, assets: assets, users: users, notifier: notif, validator: validate, logger: logger, avatars: avatarBase}
}

// List returns tickets visible to the actor. Admins may narrow to tickets
// touching an employee; everyone else only sees tickets they created, are
// assigned to, or that concern an asset assigned to them.
func (s *TicketService) List(ctx context.Context, actor models.Actor, filter models.TicketFilter) ([]models.TicketDetail, error) {
	if !actor.IsAdmin() {
		filter.EmployeeID = actor.ID
	}
	tickets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tickets")
	}
	return s.decorate(ctx, tickets)
}

// Get returns a single ticket under the actor's visibility rules.
func (s *TicketService) Get(ctx context.Context, actor models.Actor, id string) (*models.TicketDetail, error) {
	ticket, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	details, err := s.decorate(ctx, []models.RepairTicket{*ticket})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Create opens a ticket. Non-admin creators always start without a
// technician and every admin is notified; admin creators may assign a
// technician up front, who is then notified instead.
func (s *TicketService) Create(ctx context.Context, actor models.Actor, req CreateTicketRequest) (*models.TicketDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ticket payload")
	}

	asset, err := s.assets.FindByID(ctx, req.AssetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}

	ticket := &models.RepairTicket{
		ID:        uuid.NewString(),
		AssetID:   asset.ID,
		Issue:     strings.TrimSpace(req.Issue),
		Status:    models.TicketOpen,
		CreatedBy: actor.ID,
	}
	if actor.IsAdmin() && req.AssignedTechnician != nil && *req.AssignedTechnician != "" {
		if _, err := s.users.FindByID(ctx, *req.AssignedTechnician); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
		}
		ticket.AssignedTechnician = req.AssignedTechnician
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ticket")
	}

	if actor.IsAdmin() {
		if ticket.AssignedTechnician != nil {
			s.notify(ctx, func() error {
				return s.notifier.Notify(ctx, *ticket.AssignedTechnician, models.NotifTicketUpdated,
					"Ticket assigned", "You were assigned a ticket for "+asset.Label()+".",
					models.EntityTicket, ticket.ID)
			})
		}
	} else {
		creator := s.userName(ctx, actor.ID)
		s.notify(ctx, func() error {
			return s.notifier.NotifyAdmins(ctx, models.NotifTicketCreated,
				"New ticket created", creator+" created a ticket for "+asset.Label()+".",
				models.EntityTicket, ticket.ID)
		})
	}

	details, err := s.decorate(ctx, []models.RepairTicket{*ticket})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Update edits a ticket. Admin only. Compared against the pre-update
// snapshot: a new technician is notified, and any status change notifies
// the creator with the before/after text.
func (s *TicketService) Update(ctx context.Context, actor models.Actor, id string, req UpdateTicketRequest) (*models.TicketDetail, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only admin can update tickets")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ticket payload")
	}

	ticket, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	oldTechnician := ""
	if ticket.AssignedTechnician != nil {
		oldTechnician = *ticket.AssignedTechnician
	}
	oldStatus := ticket.Status

	if req.Issue != nil {
		ticket.Issue = strings.TrimSpace(*req.Issue)
	}
	if req.Status != nil {
		ticket.Status = models.TicketStatus(*req.Status)
	}
	if req.AssignedTechnician != nil {
		if *req.AssignedTechnician == "" {
			ticket.AssignedTechnician = nil
		} else {
			if _, err := s.users.FindByID(ctx, *req.AssignedTechnician); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
			}
			ticket.AssignedTechnician = req.AssignedTechnician
		}
	}

	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ticket")
	}

	label := s.assetLabel(ctx, ticket.AssetID)

	if ticket.AssignedTechnician != nil && *ticket.AssignedTechnician != oldTechnician {
		message := "You were assigned a ticket"
		if label != "" {
			message += " for " + label
		}
		message += "."
		technician := *ticket.AssignedTechnician
		s.notify(ctx, func() error {
			return s.notifier.Notify(ctx, technician, models.NotifTicketUpdated,
				"Ticket assigned", message, models.EntityTicket, ticket.ID)
		})
	}

	if ticket.Status != oldStatus {
		s.notify(ctx, func() error {
			return s.notifier.Notify(ctx, ticket.CreatedBy, models.NotifTicketUpdated,
				"Ticket updated", "Ticket status changed: "+string(oldStatus)+" -> "+string(ticket.Status),
				models.EntityTicket, ticket.ID)
		})
	}

	details, err := s.decorate(ctx, []models.RepairTicket{*ticket})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// MarkDone resolves a ticket. Only the assigned technician may call it, and
// only while the ticket is still open or in progress. The creator and all
// admins except the technician are notified.
func (s *TicketService) MarkDone(ctx context.Context, actor models.Actor, id string, req ResolutionRequest) (*models.TicketDetail, error) {
	ticket, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if ticket.Status == models.TicketResolved || ticket.Status == models.TicketClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Ticket is already resolved/closed")
	}
	if ticket.AssignedTechnician == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "No technician assigned")
	}
	if *ticket.AssignedTechnician != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the assigned technician can mark done")
	}

	now := time.Now().UTC()
	note := strings.TrimSpace(req.Note)
	ticket.Status = models.TicketResolved
	ticket.ResolutionNote = note
	ticket.ResolvedAt = &now
	ticket.ResolvedBy = &actor.ID

	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ticket")
	}

	recipients := []string{ticket.CreatedBy}
	adminIDs, err := s.notifier.AdminIDs(ctx)
	if err != nil {
		s.logger.Warn("failed to load admin recipients", zap.Error(err))
	} else {
		recipients = append(recipients, adminIDs...)
	}
	filtered := recipients[:0]
	for _, id := range recipients {
		if id != actor.ID {
			filtered = append(filtered, id)
		}
	}

	msg := "Work marked done for " + s.assetLabel(ctx, ticket.AssetID) + "."
	if note != "" {
		msg += " Note: " + note
	}
	s.notify(ctx, func() error {
		return s.notifier.NotifyMany(ctx, filtered, models.NotifTicketUpdated,
			"Ticket resolved", msg, models.EntityTicket, ticket.ID)
	})

	details, err := s.decorate(ctx, []models.RepairTicket{*ticket})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ApproveClose closes a RESOLVED ticket. Admin only. The creator and the
// technician (when set) are notified.
func (s *TicketService) ApproveClose(ctx context.Context, actor models.Actor, id string) (*models.TicketDetail, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only admin can approve and close tickets")
	}

	ticket, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.TicketClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Ticket is already closed")
	}
	if ticket.Status != models.TicketResolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Ticket must be RESOLVED before closing")
	}

	ticket.Status = models.TicketClosed
	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ticket")
	}

	recipients := []string{ticket.CreatedBy}
	if ticket.AssignedTechnician != nil {
		recipients = append(recipients, *ticket.AssignedTechnician)
	}
	s.notify(ctx, func() error {
		return s.notifier.NotifyMany(ctx, recipients, models.NotifTicketUpdated,
			"Ticket closed", "Admin verified and closed the ticket for "+s.assetLabel(ctx, ticket.AssetID)+".",
			models.EntityTicket, ticket.ID)
	})

	details, err := s.decorate(ctx, []models.RepairTicket{*ticket})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// find loads a ticket, hiding records outside the actor's visibility.
func (s *TicketService) find(ctx context.Context, actor models.Actor, id string) (*models.RepairTicket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket")
	}
	if !actor.IsAdmin() && !s.visible(ctx, actor, ticket) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
	}
	return ticket, nil
}

// visible reports whether the ticket touches the actor: creator, assigned
// technician, or an asset assigned to them.
func (s *TicketService) visible(ctx context.Context, actor models.Actor, ticket *models.RepairTicket) bool {
	if ticket.CreatedBy == actor.ID {
		return true
	}
	if ticket.AssignedTechnician != nil && *ticket.AssignedTechnician == actor.ID {
		return true
	}
	scoped, err := s.repo.List(ctx, models.TicketFilter{EmployeeID: actor.ID})
	if err != nil {
		s.logger.Warn("failed to resolve ticket visibility", zap.Error(err))
		return false
	}
	for i := range scoped {
		if scoped[i].ID == ticket.ID {
			return true
		}
	}
	return false
}

// decorate attaches asset and user detail objects in bulk.
func (s *TicketService) decorate(ctx context.Context, tickets []models.RepairTicket) ([]models.TicketDetail, error) {
	assetIDs := make([]string, 0, len(tickets))
	userIDs := make([]string, 0, len(tickets)*3)
	for i := range tickets {
		assetIDs = append(assetIDs, tickets[i].AssetID)
		userIDs = append(userIDs, tickets[i].CreatedBy)
		if tickets[i].AssignedTechnician != nil {
			userIDs = append(userIDs, *tickets[i].AssignedTechnician)
		}
		if tickets[i].ResolvedBy != nil {
			userIDs = append(userIDs, *tickets[i].ResolvedBy)
		}
	}

	assetMap, err := s.assets.FindByIDs(ctx, assetIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket assets")
	}
	userMap, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket users")
	}

	details := make([]models.TicketDetail, 0, len(tickets))
	for i := range tickets {
		detail := models.TicketDetail{RepairTicket: tickets[i]}
		if asset, ok := assetMap[tickets[i].AssetID]; ok {
			a := asset
			detail.AssetDetail = &a
		}
		if user, ok := userMap[tickets[i].CreatedBy]; ok {
			pub := user.Public(s.avatars)
			detail.CreatedByDetail = &pub
		}
		if tickets[i].AssignedTechnician != nil {
			if user, ok := userMap[*tickets[i].AssignedTechnician]; ok {
				pub := user.Public(s.avatars)
				detail.AssignedTechnicianDetail = &pub
			}
		}
		if tickets[i].ResolvedBy != nil {
			if user, ok := userMap[*tickets[i].ResolvedBy]; ok {
				pub := user.Public(s.avatars)
				detail.ResolvedByDetail = &pub
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *TicketService) assetLabel(ctx context.Context, assetID string) string {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return ""
	}
	return asset.Label()
}

func (s *TicketService) userName(ctx context.Context, userID string) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.FullName
}

// notify runs a fanout call, logging failures instead of surfacing them.
func (s *TicketService) notify(ctx context.Context, fn func() error) {
	if s.notifier == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("failed to create notification", zap.Error(err))
	}
}
