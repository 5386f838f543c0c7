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

type assignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment, assetStatus *models.AssetStatus) error
}

type assetDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Asset, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Asset, error)
}

type employeeDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// notifier is the fanout primitive workflow services publish through.
// Implemented by NotificationService.
type notifier interface {
	Notify(ctx context.Context, userID string, notifType models.NotificationType, title, message, entityType, entityID string) error
	NotifyMany(ctx context.Context, userIDs []string, notifType models.NotificationType, title, message, entityType, entityID string) error
	NotifyAdmins(ctx context.Context, notifType models.NotificationType, title, message, entityType, entityID string) error
	AdminIDs(ctx context.Context) ([]string, error)
}

// CreateAssignmentRequest is the payload for loaning an asset.
type CreateAssignmentRequest struct {
	AssetID      string     `json:"asset" validate:"required"`
	EmployeeID   string     `json:"employee" validate:"required"`
	DateAssigned *time.Time `json:"date_assigned"`
}

// UpdateAssignmentRequest is the admin edit payload; nil fields are left
// untouched.
type UpdateAssignmentRequest struct {
	EmployeeID   *string    `json:"employee"`
	DateReturned *time.Time `json:"date_returned"`
	Status       *string    `json:"status" validate:"omitempty,oneof=ASSIGNED RETURN_REQUESTED RETURNED"`
	ReturnNote   *string    `json:"return_note"`
}

// ReturnRequest is the payload for the request-return action.
type ReturnRequest struct {
	Note string `json:"note"`
}

// AssignmentService owns the assignment return workflow and its side
// effects: asset status sync and notification fanout. The primary state
// change and the asset sync commit together; notifications are created
// afterwards and a failure there never rolls the transition back.
type AssignmentService struct {
	repo      assignmentRepository
	assets    assetDirectory
	users     employeeDirectory
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
	avatars   string
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, assets assetDirectory, users employeeDirectory, notif notifier, validate *validator.Validate, logger *zap.Logger, avatarBase string) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{repo: repo, assets: assets, users: users, notifier: notif, validator: validate, logger: logger, avatars: avatarBase}
}

// List returns assignments visible to the actor. Admins may narrow by
// employee; everyone else only ever sees their own records.
func (s *AssignmentService) List(ctx context.Context, actor models.Actor, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	if !actor.IsAdmin() {
		filter.EmployeeID = actor.ID
	}
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return s.decorate(ctx, assignments)
}

// Get returns a single assignment under the actor's visibility rules.
func (s *AssignmentService) Get(ctx context.Context, actor models.Actor, id string) (*models.AssignmentDetail, error) {
	assignment, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	details, err := s.decorate(ctx, []models.Assignment{*assignment})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Create loans an asset to an employee. Admin only. The asset is marked
// ASSIGNED in the same transaction and the employee is notified.
func (s *AssignmentService) Create(ctx context.Context, actor models.Actor, req CreateAssignmentRequest) (*models.AssignmentDetail, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can create assignments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	asset, err := s.assets.FindByID(ctx, req.AssetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}
	if _, err := s.users.FindByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	dateAssigned := time.Now().UTC()
	if req.DateAssigned != nil {
		dateAssigned = *req.DateAssigned
	}

	assignment := &models.Assignment{
		ID:           uuid.NewString(),
		AssetID:      asset.ID,
		EmployeeID:   req.EmployeeID,
		DateAssigned: dateAssigned,
		Status:       models.AssignmentAssigned,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.notify(ctx, func() error {
		return s.notifier.Notify(ctx, assignment.EmployeeID, models.NotifAssetAssigned,
			"Asset assigned", asset.Label()+" was assigned to you.",
			models.EntityAssignment, assignment.ID)
	})

	details, err := s.decorate(ctx, []models.Assignment{*assignment})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Update edits an assignment. Admin only. Reassigning to a new employee
// notifies them; marking the record returned by either the legacy
// date_returned column or the status field backfills the other, frees the
// asset and notifies the employee. At most one notification fires per call,
// the returned transition taking precedence.
func (s *AssignmentService) Update(ctx context.Context, actor models.Actor, id string, req UpdateAssignmentRequest) (*models.AssignmentDetail, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can update assignments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	oldEmployee := assignment.EmployeeID
	wasReturned := assignment.DateReturned != nil
	oldStatus := assignment.Status

	if req.EmployeeID != nil && *req.EmployeeID != "" {
		if _, err := s.users.FindByID(ctx, *req.EmployeeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
		}
		assignment.EmployeeID = *req.EmployeeID
	}
	if req.DateReturned != nil {
		assignment.DateReturned = req.DateReturned
	}
	if req.Status != nil {
		assignment.Status = models.AssignmentStatus(*req.Status)
	}
	if req.ReturnNote != nil {
		assignment.ReturnNote = strings.TrimSpace(*req.ReturnNote)
	}

	markedReturned := false
	if !wasReturned && assignment.DateReturned != nil {
		markedReturned = true
	}
	if assignment.Status == models.AssignmentReturned && oldStatus != models.AssignmentReturned {
		markedReturned = true
	}
	if markedReturned {
		now := time.Now().UTC()
		assignment.Status = models.AssignmentReturned
		if assignment.DateReturned == nil {
			assignment.DateReturned = &now
		}
		if assignment.ReturnedAt == nil {
			assignment.ReturnedAt = &now
		}
	}

	var assetStatus *models.AssetStatus
	if markedReturned {
		available := models.AssetAvailable
		assetStatus = &available
	}
	if err := s.repo.Update(ctx, assignment, assetStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}

	asset, assetErr := s.assets.FindByID(ctx, assignment.AssetID)
	label := ""
	if assetErr == nil {
		label = asset.Label()
	}

	switch {
	case markedReturned:
		s.notify(ctx, func() error {
			return s.notifier.Notify(ctx, assignment.EmployeeID, models.NotifAssignmentReturned,
				"Asset returned", label+" was marked as returned.",
				models.EntityAssignment, assignment.ID)
		})
	case assignment.EmployeeID != oldEmployee:
		s.notify(ctx, func() error {
			return s.notifier.Notify(ctx, assignment.EmployeeID, models.NotifAssetAssigned,
				"Asset assigned", label+" was assigned to you.",
				models.EntityAssignment, assignment.ID)
		})
	}

	details, err := s.decorate(ctx, []models.Assignment{*assignment})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// RequestReturn lets the owning employee ask for a return. Admins are
// rejected even on their own records; already returned assignments report
// a conflict. All admins are notified.
func (s *AssignmentService) RequestReturn(ctx context.Context, actor models.Actor, id string, req ReturnRequest) (*models.AssignmentDetail, error) {
	assignment, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Admin cannot request return as employee")
	}
	if assignment.EmployeeID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only request return for your own assignment")
	}
	if assignment.Returned() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Already returned")
	}

	now := time.Now().UTC()
	note := strings.TrimSpace(req.Note)
	assignment.Status = models.AssignmentReturnRequested
	assignment.ReturnRequestedAt = &now
	assignment.ReturnNote = note

	if err := s.repo.Update(ctx, assignment, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}

	label := s.assetLabel(ctx, assignment.AssetID)
	requester := s.employeeName(ctx, actor.ID)
	msg := requester + " requested return for " + label + "."
	if note != "" {
		msg += " Note: " + note
	}
	s.notify(ctx, func() error {
		return s.notifier.NotifyAdmins(ctx, models.NotifTicketUpdated,
			"Return requested", msg, models.EntityAssignment, assignment.ID)
	})

	details, err := s.decorate(ctx, []models.Assignment{*assignment})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ConfirmReturn finalises a return. Admin only; already returned
// assignments report a conflict. The asset becomes AVAILABLE in the same
// transaction and the employee is notified.
func (s *AssignmentService) ConfirmReturn(ctx context.Context, actor models.Actor, id string) (*models.AssignmentDetail, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only admin can confirm return")
	}

	assignment, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if assignment.Returned() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Already returned")
	}

	now := time.Now().UTC()
	assignment.DateReturned = &now
	assignment.Status = models.AssignmentReturned
	assignment.ReturnedAt = &now
	assignment.ReturnedBy = &actor.ID

	available := models.AssetAvailable
	if err := s.repo.Update(ctx, assignment, &available); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}

	label := s.assetLabel(ctx, assignment.AssetID)
	s.notify(ctx, func() error {
		return s.notifier.Notify(ctx, assignment.EmployeeID, models.NotifAssignmentReturned,
			"Return confirmed", "Admin confirmed return for "+label+".",
			models.EntityAssignment, assignment.ID)
	})

	details, err := s.decorate(ctx, []models.Assignment{*assignment})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// find loads an assignment, hiding records outside the actor's visibility.
func (s *AssignmentService) find(ctx context.Context, actor models.Actor, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if !actor.IsAdmin() && assignment.EmployeeID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return assignment, nil
}

// decorate attaches asset and user detail objects in bulk.
func (s *AssignmentService) decorate(ctx context.Context, assignments []models.Assignment) ([]models.AssignmentDetail, error) {
	assetIDs := make([]string, 0, len(assignments))
	userIDs := make([]string, 0, len(assignments)*2)
	for i := range assignments {
		assetIDs = append(assetIDs, assignments[i].AssetID)
		userIDs = append(userIDs, assignments[i].EmployeeID)
		if assignments[i].ReturnedBy != nil {
			userIDs = append(userIDs, *assignments[i].ReturnedBy)
		}
	}

	assetMap, err := s.assets.FindByIDs(ctx, assetIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment assets")
	}
	userMap, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment users")
	}

	details := make([]models.AssignmentDetail, 0, len(assignments))
	for i := range assignments {
		detail := models.AssignmentDetail{Assignment: assignments[i]}
		if asset, ok := assetMap[assignments[i].AssetID]; ok {
			a := asset
			detail.AssetDetail = &a
		}
		if user, ok := userMap[assignments[i].EmployeeID]; ok {
			pub := user.Public(s.avatars)
			detail.EmployeeDetail = &pub
		}
		if assignments[i].ReturnedBy != nil {
			if user, ok := userMap[*assignments[i].ReturnedBy]; ok {
				pub := user.Public(s.avatars)
				detail.ReturnedByDetail = &pub
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *AssignmentService) assetLabel(ctx context.Context, assetID string) string {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return ""
	}
	return asset.Label()
}

func (s *AssignmentService) employeeName(ctx context.Context, userID string) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.FullName
}

// notify runs a fanout call, logging failures instead of surfacing them.
func (s *AssignmentService) notify(ctx context.Context, fn func() error) {
	if s.notifier == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("failed to create notification", zap.Error(err))
	}
}
