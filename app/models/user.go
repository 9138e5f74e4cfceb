package models

import "time"

// User is an account that can sign in. Staff and superusers may manage the
// catalog.
type User struct {
	ID          uint      `gorm:"primaryKey"                    json:"id"`
	Username    string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:254"                      json:"email"`
	Password    string    `gorm:"size:255;not null"             json:"-"` // bcrypt hash
	IsStaff     bool      `gorm:"not null;default:false"        json:"is_staff"`
	IsSuperuser bool      `gorm:"not null;default:false"        json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
