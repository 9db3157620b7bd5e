package models

import "time"

// ProjectInput is the client-supplied part of a project.
type ProjectInput struct {
	Title        string   `json:"title" yaml:"title" validate:"required,max=255"`
	Description  string   `json:"description" yaml:"description" validate:"required"`
	Category     string   `json:"category" yaml:"category" gorm:"index" validate:"required,max=100"`
	Image        string   `json:"image" yaml:"image"`
	Technologies []string `json:"technologies" yaml:"technologies" gorm:"serializer:json" validate:"omitempty,dive,required"`
	Link         *string  `json:"link" yaml:"link" validate:"omitempty,max=500"`
	Github       *string  `json:"github" yaml:"github" validate:"omitempty,max=500"`
}

// Project represents a portfolio project.
type Project struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProjectInput
	CreatedAt time.Time `json:"createdAt"`
}

// TableName pins the table name for the GORM backend.
func (Project) TableName() string { return "projects" }
