package models

import "time"

// Setting is a key/value row for server bookkeeping, such as whether the
// sample content has already been loaded.
type Setting struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName pins the table name for the GORM backend.
func (Setting) TableName() string { return "settings" }
