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
	"github.com/smartasset/asset-api/pkg/export"
)

type assetRepository interface {
	List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, error)
	FindByID(ctx context.Context, id string) (*models.Asset, error)
	FindBySerial(ctx context.Context, serial string) (*models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	ReferenceCount(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAssetRequest is the payload for registering an asset.
type CreateAssetRequest struct {
	Name         string     `json:"name" validate:"required"`
	Type         string     `json:"type" validate:"required"`
	SerialNumber string     `json:"serial_number" validate:"required"`
	Status       string     `json:"status" validate:"omitempty,oneof=AVAILABLE ASSIGNED REPAIR RETIRED"`
	PurchaseDate *time.Time `json:"purchase_date"`
}

// UpdateAssetRequest is the payload for editing an asset.
type UpdateAssetRequest struct {
	Name         string     `json:"name" validate:"required"`
	Type         string     `json:"type" validate:"required"`
	SerialNumber string     `json:"serial_number" validate:"required"`
	Status       string     `json:"status" validate:"required,oneof=AVAILABLE ASSIGNED REPAIR RETIRED"`
	PurchaseDate *time.Time `json:"purchase_date"`
}

// AssetService implements the asset registry: role-scoped listing, admin
// CRUD with delete protection, and register export.
type AssetService struct {
	repo      assetRepository
	audits    auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewAssetService constructs an AssetService.
func NewAssetService(repo assetRepository, audits auditRecorder, validate *validator.Validate, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssetService{
		repo:      repo,
		audits:    audits,
		validator: validate,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// List returns assets visible to the actor. Admins see everything and may
// narrow by employee; everyone else is restricted to their own assigned
// assets no matter what filter they send.
func (s *AssetService) List(ctx context.Context, actor models.Actor, filter models.AssetFilter) ([]models.Asset, error) {
	if !actor.IsAdmin() {
		filter.EmployeeID = actor.ID
	}
	assets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assets")
	}
	return assets, nil
}

// Get returns a single asset.
func (s *AssetService) Get(ctx context.Context, id string) (*models.Asset, error) {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}
	return asset, nil
}

// Create registers a new asset. Admin only.
func (s *AssetService) Create(ctx context.Context, actor models.Actor, req CreateAssetRequest) (*models.Asset, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can create assets")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid asset payload")
	}

	serial := strings.TrimSpace(req.SerialNumber)
	if _, err := s.repo.FindBySerial(ctx, serial); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "serial number already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check serial uniqueness")
	}

	status := models.AssetAvailable
	if req.Status != "" {
		status = models.AssetStatus(req.Status)
	}

	asset := &models.Asset{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Type:         strings.TrimSpace(req.Type),
		SerialNumber: serial,
		Status:       status,
		PurchaseDate: req.PurchaseDate,
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create asset")
	}

	s.audit(ctx, actor, models.AuditActionAssetCreate, asset.ID)
	return asset, nil
}

// Update edits an asset. Admin only.
func (s *AssetService) Update(ctx context.Context, actor models.Actor, id string, req UpdateAssetRequest) (*models.Asset, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can update assets")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid asset payload")
	}

	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	serial := strings.TrimSpace(req.SerialNumber)
	if serial != asset.SerialNumber {
		if existing, err := s.repo.FindBySerial(ctx, serial); err == nil && existing.ID != asset.ID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "serial number already registered")
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check serial uniqueness")
		}
	}

	asset.Name = strings.TrimSpace(req.Name)
	asset.Type = strings.TrimSpace(req.Type)
	asset.SerialNumber = serial
	asset.Status = models.AssetStatus(req.Status)
	asset.PurchaseDate = req.PurchaseDate

	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update asset")
	}

	s.audit(ctx, actor, models.AuditActionAssetUpdate, asset.ID)
	return asset, nil
}

// Delete removes an asset. Admin only. Assets referenced by any assignment
// or ticket are protected and report a conflict.
func (s *AssetService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can delete assets")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	refs, err := s.repo.ReferenceCount(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check asset references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "asset is referenced by assignments or tickets and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete asset")
	}

	s.audit(ctx, actor, models.AuditActionAssetDelete, id)
	return nil
}

// Export renders the filtered asset register as csv or pdf. Admin only.
// It returns the rendered bytes and the content type.
func (s *AssetService) Export(ctx context.Context, actor models.Actor, filter models.AssetFilter, format string) ([]byte, string, error) {
	if !actor.IsAdmin() {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "only admins can export the asset register")
	}

	assets, err := s.List(ctx, actor, filter)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Type", "Serial Number", "Status", "Purchase Date"},
		Rows:    make([][]string, 0, len(assets)),
	}
	for i := range assets {
		purchase := ""
		if assets[i].PurchaseDate != nil {
			purchase = assets[i].PurchaseDate.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, []string{
			assets[i].Name,
			assets[i].Type,
			assets[i].SerialNumber,
			string(assets[i].Status),
			purchase,
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Asset Register")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *AssetService) audit(ctx context.Context, actor models.Actor, action, assetID string) {
	if s.audits == nil {
		return
	}
	if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.ID,
		Action:     action,
		Resource:   "asset",
		ResourceID: &assetID,
	}); err != nil {
		s.logger.Warn("failed to record asset audit log", zap.String("action", action), zap.Error(err))
	}
}
