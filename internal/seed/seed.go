// Package seed loads the sample projects and documents shown before any admin edits.
//
// Seed records use short sequential ids ("1", "2", ...), a separate id space from the
// uuids assigned to records created at runtime.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"portfolio/internal/models"
	"portfolio/internal/repositories"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Data is the decoded sample set.
type Data struct {
	Projects  []models.ProjectInput  `yaml:"projects"`
	Documents []models.DocumentInput `yaml:"documents"`
}

// Default returns the built-in sample set.
func Default() (Data, error) {
	return Parse(defaultSeed)
}

// FromFile reads a sample set from a YAML file.
func FromFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML sample set.
func Parse(raw []byte) (Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("failed to decode seed data: %w", err)
	}
	return data, nil
}

// ID returns the seed identifier for the record at index i.
func ID(i int) string {
	return strconv.Itoa(i + 1)
}

// IsSeedID reports whether id belongs to the sequential seed id space.
func IsSeedID(id string) bool {
	n, err := strconv.Atoi(id)
	return err == nil && n > 0 && strconv.Itoa(n) == id
}

// Load writes data into the project and document stores.
func Load(stores repositories.Stores, data Data) error {
	now := time.Now().UTC()

	for i, in := range data.Projects {
		p := models.Project{
			ID:           ID(i),
			ProjectInput: in,
			CreatedAt:    now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := stores.Projects.Put(p.ID, p); err != nil {
			return fmt.Errorf("failed to seed project %s: %w", in.Title, err)
		}
		log.Debug().Str("id", p.ID).Str("title", in.Title).Msg("Seeded project")
	}

	for i, in := range data.Documents {
		d := models.Document{
			ID:            ID(i),
			DocumentInput: in,
			CreatedAt:     now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := stores.Documents.Put(d.ID, d); err != nil {
			return fmt.Errorf("failed to seed document %s: %w", in.Title, err)
		}
		log.Debug().Str("id", d.ID).Str("title", in.Title).Msg("Seeded document")
	}

	log.Info().Int("projects", len(data.Projects)).Int("documents", len(data.Documents)).Msg("Seed data loaded")
	return nil
}
