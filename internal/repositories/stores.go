package repositories

import (
	"fmt"

	"portfolio/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage drivers accepted by OpenDatabase.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Stores bundles one EntityStore per entity type.
type Stores struct {
	Users     EntityStore[models.User]
	Projects  EntityStore[models.Project]
	Documents EntityStore[models.Document]
	Contacts  EntityStore[models.ContactMessage]
	Settings  EntityStore[models.Setting]
}

// NewMemoryStores returns empty in-memory stores.
func NewMemoryStores() Stores {
	return Stores{
		Users:     NewMemoryStore[models.User](),
		Projects:  NewMemoryStore[models.Project](),
		Documents: NewMemoryStore[models.Document](),
		Contacts:  NewMemoryStore[models.ContactMessage](),
		Settings:  NewMemoryStore[models.Setting](),
	}
}

// NewGORMStores returns table-backed stores sharing db.
func NewGORMStores(db *gorm.DB) Stores {
	return Stores{
		Users:     NewGORMStore[models.User](db),
		Projects:  NewGORMStore[models.Project](db),
		Documents: NewGORMStore[models.Document](db),
		Contacts:  NewGORMStore[models.ContactMessage](db),
		Settings:  NewGORMStore[models.Setting](db),
	}
}

// OpenDatabase connects to the configured database and migrates the schema.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.Document{}, &models.ContactMessage{}, &models.Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
