package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/email"
	"github.com/vikasavnish/parentportal/internal/models"
	"github.com/vikasavnish/parentportal/internal/store"
	"github.com/vikasavnish/parentportal/internal/tasks"
)

// ChildService defines child record operations scoped to a parent
type ChildService interface {
	CreateChild(uow store.UnitOfWork, parentID uint, req models.ChildCreate) (models.Child, error)
	GetChild(uow store.UnitOfWork, childID uint) (models.Child, error)
	ListChildren(uow store.UnitOfWork, parentID uint, skip, limit int) ([]models.Child, error)
	FilterChildren(uow store.UnitOfWork, filter models.ChildFilter) ([]models.Child, error)
	UpdateChild(uow store.UnitOfWork, childID uint, update models.ChildUpdate) (models.Child, error)
}

// childService implements the ChildService interface
type childService struct {
	notifier     Notifier
	events       EventPublisher
	createdDelay time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewChildService creates a new child service. createdDelay defers the
// child-created email.
func NewChildService(notifier Notifier, events EventPublisher, createdDelay time.Duration, logger *zap.Logger) ChildService {
	if events == nil {
		events = nopPublisher{}
	}
	return &childService{
		notifier:     notifier,
		events:       events,
		createdDelay: createdDelay,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateChild adds a child under an existing parent and schedules a
// best-effort notification to the parent
func (s *childService) CreateChild(uow store.UnitOfWork, parentID uint, req models.ChildCreate) (models.Child, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Child{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	accounts := uow.Accounts()
	parent, err := accounts.GetParentByID(parentID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Child{}, ErrParentNotFound
	}
	if err != nil {
		return models.Child{}, err
	}

	child := models.Child{
		Name:      name,
		DateAdded: s.now().UTC(),
		ParentID:  parent.ID,
	}
	if err := accounts.CreateChild(&child); err != nil {
		return models.Child{}, err
	}

	msg := email.Message{
		To:      parent.Email,
		Subject: "Child creation",
		Body:    childCreatedBody(parent.FirstName, child.Name),
	}
	created := child
	uow.AfterCommit(func() {
		s.notifier.Notify(tasks.KindChildCreated, msg, s.createdDelay)
		s.events.Publish(models.EventChildCreated, created)
	})

	s.logger.Info("child created", zap.Uint("child_id", child.ID), zap.Uint("parent_id", parent.ID))
	return child, nil
}

func (s *childService) GetChild(uow store.UnitOfWork, childID uint) (models.Child, error) {
	child, err := uow.Accounts().GetChild(childID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Child{}, ErrChildNotFound
	}
	return child, err
}

// ListChildren returns a parent's children in insertion order
func (s *childService) ListChildren(uow store.UnitOfWork, parentID uint, skip, limit int) ([]models.Child, error) {
	return uow.Accounts().ListChildren(parentID, skip, limit)
}

// FilterChildren returns a parent's children matching every set filter
func (s *childService) FilterChildren(uow store.UnitOfWork, filter models.ChildFilter) ([]models.Child, error) {
	if filter.ParentID == 0 {
		return nil, fmt.Errorf("%w: parent_id is required", ErrInvalidInput)
	}
	if filter.AddedAfter != nil {
		utc := filter.AddedAfter.UTC()
		filter.AddedAfter = &utc
	}
	return uow.Accounts().FilterChildren(filter)
}

// UpdateChild applies the set fields of update
func (s *childService) UpdateChild(uow store.UnitOfWork, childID uint, update models.ChildUpdate) (models.Child, error) {
	child, err := s.GetChild(uow, childID)
	if err != nil {
		return models.Child{}, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.Child{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		update.Name = &name
	}
	update.Apply(&child)

	if err := uow.Accounts().SaveChild(&child); err != nil {
		return models.Child{}, err
	}
	return child, nil
}

func childCreatedBody(parentName, childName string) string {
	return fmt.Sprintf(`Dear %s,

we have successfully added %s as child in your account.

Best regards,
Your Application Team
`, parentName, childName)
}
