package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore is an EntityStore backed by one database table.
// T must be a GORM model whose primary key column is "id".
type GORMStore[T any] struct {
	db *gorm.DB
}

// NewGORMStore creates a new GORMStore over db.
func NewGORMStore[T any](db *gorm.DB) *GORMStore[T] {
	return &GORMStore[T]{
		db: db,
	}
}

// Put upserts record. The record's own primary key must equal id.
func (s *GORMStore[T]) Put(id string, record T) error {
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to store record %s: %w", id, err)
	}
	return nil
}

// Get retrieves the record with the given id.
func (s *GORMStore[T]) Get(id string) (T, bool, error) {
	var record T
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return record, false, nil
		}
		return record, false, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return record, true, nil
}

// ListAll retrieves every row ordered by creation time.
func (s *GORMStore[T]) ListAll() ([]T, error) {
	var records []T
	if err := s.db.Order("created_at asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// Remove deletes the row with the given id. A missing row is not an error.
func (s *GORMStore[T]) Remove(id string) error {
	var record T
	if err := s.db.Delete(&record, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}
