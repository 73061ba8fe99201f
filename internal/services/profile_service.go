package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/models"
	"github.com/vikasavnish/parentportal/internal/storage"
	"github.com/vikasavnish/parentportal/internal/store"
)

// PhotoUpload is a profile photo supplied with a profile update
type PhotoUpload struct {
	Filename string
	Content  io.Reader
}

// ProfileService defines parent profile operations
type ProfileService interface {
	GetParent(uow store.UnitOfWork, parentID uint) (models.Parent, error)
	UpdateProfile(ctx context.Context, uow store.UnitOfWork, parentID uint, update models.ParentUpdate, photo *PhotoUpload) (models.Parent, error)
}

// profileService implements the ProfileService interface
type profileService struct {
	photos storage.PhotoStore
	logger *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(photos storage.PhotoStore, logger *zap.Logger) ProfileService {
	return &profileService{
		photos: photos,
		logger: logger,
	}
}

func (s *profileService) GetParent(uow store.UnitOfWork, parentID uint) (models.Parent, error) {
	parent, err := uow.Accounts().GetParentByID(parentID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Parent{}, ErrParentNotFound
	}
	return parent, err
}

// UpdateProfile applies the set fields of update and, when photo is non-nil,
// stores it and points the parent at the new file. The previous photo is
// left in place; the new one is removed again if the update rolls back.
func (s *profileService) UpdateProfile(ctx context.Context, uow store.UnitOfWork, parentID uint, update models.ParentUpdate, photo *PhotoUpload) (models.Parent, error) {
	accounts := uow.Accounts()
	parent, err := s.GetParent(uow, parentID)
	if err != nil {
		return models.Parent{}, err
	}

	if update.Email != nil {
		trimmed := strings.TrimSpace(*update.Email)
		if trimmed == "" {
			return models.Parent{}, fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
		}
		update.Email = &trimmed
		if trimmed != parent.Email {
			taken, err := accounts.EmailTaken(trimmed, parent.ID)
			if err != nil {
				return models.Parent{}, err
			}
			if taken {
				return models.Parent{}, ErrEmailTaken
			}
		}
	}

	update.Apply(&parent)

	if photo != nil {
		ref, err := s.photos.Save(ctx, photo.Filename, photo.Content)
		if err != nil {
			return models.Parent{}, err
		}
		parent.ProfilePhoto = &ref
		parentID := parent.ID
		uow.AfterRollback(func() { s.discardPhoto(parentID, ref) })
		s.logger.Info("profile photo stored", zap.Uint("parent_id", parent.ID), zap.String("ref", ref))
	}

	if err := accounts.SaveParent(&parent); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Parent{}, ErrEmailTaken
		}
		return models.Parent{}, err
	}
	return parent, nil
}

func (s *profileService) discardPhoto(parentID uint, ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.photos.Delete(ctx, ref); err != nil {
		s.logger.Warn("failed to remove photo of rolled back update",
			zap.Uint("parent_id", parentID),
			zap.String("ref", ref),
			zap.Error(err),
		)
	}
}
