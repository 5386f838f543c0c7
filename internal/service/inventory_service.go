package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type inventoryRepository interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	FindByID(ctx context.Context, id string) (*models.InventoryItem, error)
	FindByType(ctx context.Context, itemType string) (*models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id string) error
}

// InventoryItemRequest is the payload for creating or updating stock.
type InventoryItemRequest struct {
	ItemType  string `json:"item_type" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	Threshold int    `json:"threshold" validate:"gte=0"`
}

// InventoryService handles consumable stock administration.
type InventoryService struct {
	repo      inventoryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInventoryService constructs an InventoryService.
func NewInventoryService(repo inventoryRepository, validate *validator.Validate, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InventoryService{repo: repo, validator: validate, logger: logger}
}

// List returns all inventory items ordered by item type.
func (s *InventoryService) List(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inventory")
	}
	return items, nil
}

// Get returns one inventory item.
func (s *InventoryService) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inventory item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inventory item")
	}
	return item, nil
}

// Create adds a new inventory item. Admin only.
func (s *InventoryService) Create(ctx context.Context, actor models.Actor, req InventoryItemRequest) (*models.InventoryItem, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can create inventory items")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inventory payload")
	}

	itemType := strings.TrimSpace(req.ItemType)
	if _, err := s.repo.FindByType(ctx, itemType); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "inventory item type already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check item type uniqueness")
	}

	item := &models.InventoryItem{
		ID:        uuid.NewString(),
		ItemType:  itemType,
		Quantity:  req.Quantity,
		Threshold: req.Threshold,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create inventory item")
	}
	return item, nil
}

// Update edits an inventory item. Admin only.
func (s *InventoryService) Update(ctx context.Context, actor models.Actor, id string, req InventoryItemRequest) (*models.InventoryItem, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can update inventory items")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inventory payload")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.ItemType = strings.TrimSpace(req.ItemType)
	item.Quantity = req.Quantity
	item.Threshold = req.Threshold

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inventory item")
	}
	return item, nil
}

// Delete removes an inventory item. Admin only.
func (s *InventoryService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can delete inventory items")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete inventory item")
	}
	return nil
}
