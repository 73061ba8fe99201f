package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vikasavnish/parentportal/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// AccountStore defines persistence operations for parents and children
type AccountStore interface {
	GetParentByID(id uint) (models.Parent, error)
	GetParentByEmail(email string) (models.Parent, error)
	GetParentByActivationToken(token string) (models.Parent, error)
	EmailTaken(email string, exceptID uint) (bool, error)
	CreateParent(parent *models.Parent) error
	SaveParent(parent *models.Parent) error

	GetChild(id uint) (models.Child, error)
	CreateChild(child *models.Child) error
	SaveChild(child *models.Child) error
	ListChildren(parentID uint, skip, limit int) ([]models.Child, error)
	FilterChildren(filter models.ChildFilter) ([]models.Child, error)
}

// accountStore implements AccountStore on a gorm handle, usually a transaction
type accountStore struct {
	db *gorm.DB
}

// NewAccountStore creates an account store bound to db
func NewAccountStore(db *gorm.DB) AccountStore {
	return &accountStore{
		db: db,
	}
}

func (s *accountStore) GetParentByID(id uint) (models.Parent, error) {
	var parent models.Parent
	err := s.db.First(&parent, id).Error
	return parent, translate(err)
}

func (s *accountStore) GetParentByEmail(email string) (models.Parent, error) {
	var parent models.Parent
	err := s.db.Where("email = ?", email).First(&parent).Error
	return parent, translate(err)
}

func (s *accountStore) GetParentByActivationToken(token string) (models.Parent, error) {
	var parent models.Parent
	err := s.db.Where("activation_token = ?", token).First(&parent).Error
	return parent, translate(err)
}

// EmailTaken reports whether a parent other than exceptID owns email.
// Pass exceptID 0 to check against every parent.
func (s *accountStore) EmailTaken(email string, exceptID uint) (bool, error) {
	var count int64
	q := s.db.Model(&models.Parent{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *accountStore) CreateParent(parent *models.Parent) error {
	return translate(s.db.Create(parent).Error)
}

func (s *accountStore) SaveParent(parent *models.Parent) error {
	return translate(s.db.Save(parent).Error)
}

func (s *accountStore) GetChild(id uint) (models.Child, error) {
	var child models.Child
	err := s.db.First(&child, id).Error
	return child, translate(err)
}

func (s *accountStore) CreateChild(child *models.Child) error {
	return translate(s.db.Create(child).Error)
}

// SaveChild writes the mutable columns only; date_added and parent_id are fixed at creation.
func (s *accountStore) SaveChild(child *models.Child) error {
	return translate(s.db.Model(child).Select("name").Updates(child).Error)
}

func (s *accountStore) ListChildren(parentID uint, skip, limit int) ([]models.Child, error) {
	return s.FilterChildren(models.ChildFilter{ParentID: parentID, Skip: skip, Limit: limit})
}

func (s *accountStore) FilterChildren(filter models.ChildFilter) ([]models.Child, error) {
	q := s.db.Model(&models.Child{}).Where("parent_id = ?", filter.ParentID)

	if filter.AddedAfter != nil {
		q = q.Where("date_added >= ?", *filter.AddedAfter)
	}
	if filter.NameContains != "" {
		q = q.Where(substringClause(s.db), filter.NameContains)
	}

	skip, limit := Page(filter.Skip, filter.Limit)

	children := make([]models.Child, 0)
	err := q.Order("child_id ASC").Offset(skip).Limit(limit).Find(&children).Error
	return children, err
}

// Page normalizes offset/limit query values.
func Page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}

// substringClause returns a case-sensitive containment predicate for the
// active dialect. LIKE is case-insensitive on sqlite and treats % and _ as
// wildcards, so neither dialect uses it.
func substringClause(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "strpos(name, ?) > 0"
	default:
		return "instr(name, ?) > 0"
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
