package models

import "time"

// UserProfile holds the optional avatar shown on the admin dashboard.
type UserProfile struct {
	Image *string `json:"image"`
}

// User represents the site administrator.
type User struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string      `json:"username" gorm:"uniqueIndex;type:varchar(150)"`
	Password  string      `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Profile   UserProfile `json:"profile" gorm:"embedded;embeddedPrefix:profile_"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName pins the table name for the GORM backend.
func (User) TableName() string { return "users" }

// UserInput carries the fields needed to create a user. Password is already hashed.
type UserInput struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
}
