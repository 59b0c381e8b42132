package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can place orders. Deleting a user keeps their
// orders (the order's user reference is nulled).
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Phone        string    `gorm:"column:phone" json:"phone"`
	IsStaff      bool      `gorm:"column:is_staff;not null;default:false" json:"is_staff"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
