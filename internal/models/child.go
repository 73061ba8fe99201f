package models

import (
	"time"
)

// Child is a record owned by exactly one Parent.
type Child struct {
	ID        uint      `gorm:"column:child_id;primaryKey" json:"child_id"`
	Name      string    `gorm:"index;not null" json:"name"`
	DateAdded time.Time `gorm:"column:date_added;not null" json:"date_added"`
	ParentID  uint      `gorm:"column:parent_id;not null;index" json:"parent_id"`
}

// TableName specifies the table name for Child model
func (Child) TableName() string {
	return "children"
}

// ChildCreate is the body of POST /parents/{id}/children/
type ChildCreate struct {
	Name string `json:"name"`
}

// ChildUpdate is a partial update; nil fields are left untouched.
type ChildUpdate struct {
	Name *string `json:"name,omitempty"`
}

// Apply copies every set field onto c.
func (u ChildUpdate) Apply(c *Child) {
	if u.Name != nil {
		c.Name = *u.Name
	}
}

// ChildFilter narrows a child listing. All set filters are ANDed.
type ChildFilter struct {
	ParentID     uint
	AddedAfter   *time.Time // inclusive
	NameContains string     // case-sensitive substring
	Skip         int
	Limit        int
}
