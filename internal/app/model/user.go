package model

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/pkg/util"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	Password         string         `gorm:"not null" json:"-"`
	Name             string         `gorm:"not null" json:"name"`
	Role             UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"`
	ResetToken       string         `gorm:"index" json:"-"`
	ResetTokenExpiry *time.Time     `json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Derived fields, never persisted
	Gravatar string `gorm:"-" json:"gravatar"`
	Hearts   []uint `gorm:"-" json:"hearts"`
}

func (User) TableName() string {
	return "users"
}

// BeforeSave normalizes the email so lookups are case-insensitive
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// AfterFind fills the gravatar URL from the stored email
func (u *User) AfterFind(tx *gorm.DB) error {
	u.Gravatar = util.GravatarURL(u.Email)
	return nil
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
