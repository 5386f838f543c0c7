package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateAvatar(ctx context.Context, id, avatarPath string) error
}

type avatarStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// UpdateProfileRequest is the payload for updating the caller's profile.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required"`
}

// UserService exposes read access to the user directory and profile
// management for the authenticated user.
type UserService struct {
	repo       userRepository
	storage    avatarStorage
	validator  *validator.Validate
	logger     *zap.Logger
	avatarBase string
	maxAvatar  int64
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, storage avatarStorage, validate *validator.Validate, logger *zap.Logger, avatarBase string, maxAvatarBytes int64) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = 5 << 20
	}
	return &UserService{repo: repo, storage: storage, validator: validate, logger: logger, avatarBase: avatarBase, maxAvatar: maxAvatarBytes}
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserPublic, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	result := make([]models.UserPublic, 0, len(users))
	for i := range users {
		result = append(result, users[i].Public(s.avatarBase))
	}

	return result, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a single user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserPublic, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := user.Public(s.avatarBase)
	return &pub, nil
}

// Me returns the profile of the authenticated user.
func (s *UserService) Me(ctx context.Context, actor models.Actor) (*models.UserPublic, error) {
	return s.Get(ctx, actor.ID)
}

// UpdateMe updates the mutable profile fields of the authenticated user.
func (s *UserService) UpdateMe(ctx context.Context, actor models.Actor, req UpdateProfileRequest) (*models.UserPublic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.findUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	user.FullName = strings.TrimSpace(req.FullName)
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	pub := user.Public(s.avatarBase)
	return &pub, nil
}

// UploadAvatar stores a new avatar file for the authenticated user and
// removes the previous one when present.
func (s *UserService) UploadAvatar(ctx context.Context, actor models.Actor, filename string, size int64, r io.Reader) (*models.UserPublic, error) {
	if s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "avatar storage is not configured")
	}
	if size > s.maxAvatar {
		return nil, appErrors.Clone(appErrors.ErrValidation, "avatar file is too large")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported avatar file type")
	}

	user, err := s.findUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	stored, err := s.storage.SaveStream(fmt.Sprintf("%s%s", uuid.NewString(), ext), io.LimitReader(r, s.maxAvatar))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store avatar")
	}

	if err := s.repo.UpdateAvatar(ctx, user.ID, stored); err != nil {
		if removeErr := s.storage.Delete(stored); removeErr != nil {
			s.logger.Warn("failed to remove orphaned avatar", zap.String("file", stored), zap.Error(removeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update avatar")
	}

	if user.AvatarPath != "" && user.AvatarPath != stored {
		if err := s.storage.Delete(user.AvatarPath); err != nil {
			s.logger.Warn("failed to remove previous avatar", zap.String("file", user.AvatarPath), zap.Error(err))
		}
	}

	user.AvatarPath = stored
	pub := user.Public(s.avatarBase)
	return &pub, nil
}

func (s *UserService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
