package models

import (
	"time"
)

// Parent is an account holder and the login principal.
// A parent is either pending (IsActive false, ActivationToken set) or
// active (IsActive true, ActivationToken nil).
type Parent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FirstName       string    `gorm:"column:first_name;index" json:"first_name"`
	LastName        string    `gorm:"column:last_name;index" json:"last_name"`
	Age             *int      `json:"age"`
	Address         *string   `json:"address"`
	City            *string   `json:"city"`
	Country         *string   `json:"country"`
	Pincode         *string   `json:"pincode"`
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword  string    `gorm:"column:hashed_password;not null" json:"-"`
	ActivationToken *string   `gorm:"column:activation_token;uniqueIndex" json:"-"`
	IsActive        bool      `gorm:"column:is_active;default:false" json:"is_active"`
	ProfilePhoto    *string   `gorm:"column:profile_photo" json:"profile_photo"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Children []Child `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for Parent model
func (Parent) TableName() string {
	return "parents"
}

// RegisterRequest is the body of POST /register/
type RegisterRequest struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Age          *int    `json:"age,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	Country      *string `json:"country,omitempty"`
	Pincode      *string `json:"pincode,omitempty"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	ProfilePhoto *string `json:"profile_photo,omitempty"`
}

// ParentUpdate carries a partial profile update. Nil fields are left untouched.
type ParentUpdate struct {
	FirstName *string
	LastName  *string
	Age       *int
	Address   *string
	City      *string
	Country   *string
	Pincode   *string
	Email     *string
}

// Apply copies every set field onto p.
func (u ParentUpdate) Apply(p *Parent) {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Age != nil {
		age := *u.Age
		p.Age = &age
	}
	if u.Address != nil {
		p.Address = ptr(*u.Address)
	}
	if u.City != nil {
		p.City = ptr(*u.City)
	}
	if u.Country != nil {
		p.Country = ptr(*u.Country)
	}
	if u.Pincode != nil {
		p.Pincode = ptr(*u.Pincode)
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
}

func ptr(s string) *string { return &s }
