package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"portfolio/internal/models"
	"portfolio/internal/repositories"

	"github.com/google/uuid"
)

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("username already taken")

// Storage exposes typed operations over the entity stores.
// Lookups return a nil record, not an error, when the id is unknown.
type Storage struct {
	stores repositories.Stores
	newID  func() string
	now    func() time.Time

	usersMu sync.Mutex // serializes the username check with the insert

	// Held across every read-then-write so a replace cannot resurrect a
	// concurrently deleted record.
	projectsMu  sync.Mutex
	documentsMu sync.Mutex
}

// StorageOption customizes a Storage.
type StorageOption func(*Storage)

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(gen func() string) StorageOption {
	return func(s *Storage) { s.newID = gen }
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) StorageOption {
	return func(s *Storage) { s.now = now }
}

// NewStorage creates a Storage over the given stores.
func NewStorage(stores repositories.Stores, opts ...StorageOption) *Storage {
	s := &Storage{
		stores: stores,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Users ---

// CreateUser stores a new user. The password must already be hashed.
func (s *Storage) CreateUser(in models.UserInput) (*models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	existing, err := s.GetUserByUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, in.Username)
	}

	user := models.User{
		ID:        s.newID(),
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		CreatedAt: s.now(),
	}
	if err := s.stores.Users.Put(user.ID, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUser returns the user with the given id.
func (s *Storage) GetUser(id string) (*models.User, error) {
	return get(s.stores.Users, id)
}

// GetUserByUsername returns the first user with the given username.
func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	users, err := s.stores.Users.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}

// ReplaceUser overwrites a stored user. A username change must stay unique.
func (s *Storage) ReplaceUser(user models.User) (*models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	current, err := s.GetUser(user.ID)
	if err != nil || current == nil {
		return nil, err
	}
	if user.Username != current.Username {
		other, err := s.GetUserByUsername(user.Username)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, user.Username)
		}
	}
	user.CreatedAt = current.CreatedAt
	if err := s.stores.Users.Put(user.ID, user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	return &user, nil
}

// --- Projects ---

// CreateProject stores a new project under a fresh id.
func (s *Storage) CreateProject(in models.ProjectInput) (*models.Project, error) {
	p := models.Project{ID: s.newID(), ProjectInput: normalizeProject(in), CreatedAt: s.now()}
	if err := s.stores.Projects.Put(p.ID, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &p, nil
}

// GetProjectByID returns the project with the given id.
func (s *Storage) GetProjectByID(id string) (*models.Project, error) {
	return get(s.stores.Projects, id)
}

// ListProjects returns all projects.
func (s *Storage) ListProjects() ([]models.Project, error) {
	return s.stores.Projects.ListAll()
}

// ListProjectsByCategory returns projects whose category equals category exactly.
func (s *Storage) ListProjectsByCategory(category string) ([]models.Project, error) {
	projects, err := s.stores.Projects.ListAll()
	if err != nil {
		return nil, err
	}
	return filter(projects, func(p models.Project) bool { return p.Category == category }), nil
}

// ReplaceProject replaces the client fields of an existing project.
func (s *Storage) ReplaceProject(id string, in models.ProjectInput) (*models.Project, error) {
	in = normalizeProject(in)
	return update(&s.projectsMu, s.stores.Projects, id, func(p *models.Project) error {
		p.ProjectInput = in
		return nil
	})
}

// DeleteProject removes a project and reports whether it existed.
func (s *Storage) DeleteProject(id string) (bool, error) {
	removed, err := take(&s.projectsMu, s.stores.Projects, id)
	return removed != nil, err
}

// normalizeProject turns a missing technology list into an empty one.
func normalizeProject(in models.ProjectInput) models.ProjectInput {
	if in.Technologies == nil {
		in.Technologies = []string{}
	}
	return in
}

// --- Documents ---

// CreateDocument stores a new document under a fresh id.
func (s *Storage) CreateDocument(in models.DocumentInput) (*models.Document, error) {
	d := models.Document{ID: s.newID(), DocumentInput: in, CreatedAt: s.now()}
	if err := s.stores.Documents.Put(d.ID, d); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return &d, nil
}

// GetDocumentByID returns the document with the given id.
func (s *Storage) GetDocumentByID(id string) (*models.Document, error) {
	return get(s.stores.Documents, id)
}

// ListDocuments returns all documents.
func (s *Storage) ListDocuments() ([]models.Document, error) {
	return s.stores.Documents.ListAll()
}

// ListDocumentsByCategory returns documents whose category equals category exactly.
func (s *Storage) ListDocumentsByCategory(category string) ([]models.Document, error) {
	documents, err := s.stores.Documents.ListAll()
	if err != nil {
		return nil, err
	}
	return filter(documents, func(d models.Document) bool { return d.Category == category }), nil
}

// ReplaceDocument replaces the client fields of an existing document.
func (s *Storage) ReplaceDocument(id string, in models.DocumentInput) (*models.Document, error) {
	return s.UpdateDocument(id, func(d *models.Document) error {
		d.DocumentInput = in
		return nil
	})
}

// UpdateDocument applies fn to the stored document and writes it back while
// holding the document lock. It returns nil when id is unknown; an error from
// fn leaves the record untouched. The id and CreatedAt cannot be changed.
func (s *Storage) UpdateDocument(id string, fn func(*models.Document) error) (*models.Document, error) {
	return update(&s.documentsMu, s.stores.Documents, id, func(d *models.Document) error {
		createdAt := d.CreatedAt
		if err := fn(d); err != nil {
			return err
		}
		d.ID, d.CreatedAt = id, createdAt
		return nil
	})
}

// ReplaceDocumentRecord overwrites a full document record, including its storage
// key. Like the other replacements it never recreates a deleted document.
func (s *Storage) ReplaceDocumentRecord(doc models.Document) (*models.Document, error) {
	return s.UpdateDocument(doc.ID, func(d *models.Document) error {
		d.DocumentInput = doc.DocumentInput
		d.StorageKey = doc.StorageKey
		return nil
	})
}

// DeleteDocument removes a document and reports whether it existed.
func (s *Storage) DeleteDocument(id string) (bool, error) {
	removed, err := s.RemoveDocument(id)
	return removed != nil, err
}

// RemoveDocument removes a document and returns the record that was removed,
// or nil when id was unknown.
func (s *Storage) RemoveDocument(id string) (*models.Document, error) {
	return take(&s.documentsMu, s.stores.Documents, id)
}

// --- Contact messages ---

// CreateContactMessage stores a new contact message.
func (s *Storage) CreateContactMessage(in models.ContactInput) (*models.ContactMessage, error) {
	m := models.ContactMessage{ID: s.newID(), ContactInput: in, CreatedAt: s.now()}
	if err := s.stores.Contacts.Put(m.ID, m); err != nil {
		return nil, fmt.Errorf("failed to create contact message: %w", err)
	}
	return &m, nil
}

// ListContactMessages returns all contact messages.
func (s *Storage) ListContactMessages() ([]models.ContactMessage, error) {
	return s.stores.Contacts.ListAll()
}

func get[T any](store repositories.EntityStore[T], id string) (*T, error) {
	record, ok, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// update reads, modifies and writes back one record under mu.
func update[T any](mu *sync.Mutex, store repositories.EntityStore[T], id string, fn func(*T) error) (*T, error) {
	mu.Lock()
	defer mu.Unlock()

	record, ok, err := store.Get(id)
	if err != nil || !ok {
		return nil, err
	}
	if err := fn(&record); err != nil {
		return nil, err
	}
	if err := store.Put(id, record); err != nil {
		return nil, fmt.Errorf("failed to update record %s: %w", id, err)
	}
	return &record, nil
}

// take removes one record under mu and returns it, or nil if it was absent.
func take[T any](mu *sync.Mutex, store repositories.EntityStore[T], id string) (*T, error) {
	mu.Lock()
	defer mu.Unlock()

	record, ok, err := store.Get(id)
	if err != nil || !ok {
		return nil, err
	}
	if err := store.Remove(id); err != nil {
		return nil, err
	}
	return &record, nil
}

func filter[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
