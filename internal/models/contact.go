package models

import "time"

// ContactInput is what a visitor submits through the contact form.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required"`
}

// ContactMessage is a stored contact form submission.
type ContactMessage struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ContactInput
	CreatedAt time.Time `json:"createdAt"`
}

// TableName pins the table name for the GORM backend.
func (ContactMessage) TableName() string { return "contact_messages" }
