package models

import "time"

// DocumentInput is the client-supplied part of a document.
// FileURL is either a link or an embedded data URL.
type DocumentInput struct {
	Title       string `json:"title" yaml:"title" validate:"required,max=255"`
	Description string `json:"description" yaml:"description" validate:"required"`
	Type        string `json:"type" yaml:"type" validate:"required,max=50"`
	Category    string `json:"category" yaml:"category" gorm:"index" validate:"required,max=100"`
	FileURL     string `json:"fileUrl" yaml:"fileUrl" validate:"required"`
	Size        string `json:"size" yaml:"size" validate:"required,max=50"`
}

// Document represents a downloadable document listed on the site.
type Document struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DocumentInput
	// StorageKey is set when the file body lives in object storage.
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName pins the table name for the GORM backend.
func (Document) TableName() string { return "documents" }
