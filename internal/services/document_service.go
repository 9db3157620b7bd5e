package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio/internal/blob"
	"portfolio/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrFileUnavailable is returned when a document has no downloadable body.
var ErrFileUnavailable = errors.New("document file not available")

const presignExpiry = 15 * time.Minute

// DocumentFile describes how to deliver a document body.
// Exactly one of RedirectURL or Data is set.
type DocumentFile struct {
	RedirectURL string
	ContentType string
	Data        []byte
}

// DocumentService manages documents whose file bodies may live in object storage.
type DocumentService struct {
	storage *Storage
	blobs   blob.Storage
}

// NewDocumentService creates a DocumentService. blobs may be nil, in which case
// embedded data URLs are stored inline.
func NewDocumentService(storage *Storage, blobs blob.Storage) *DocumentService {
	return &DocumentService{storage: storage, blobs: blobs}
}

// FileURL is the public download path of a document.
func FileURL(id string) string {
	return fmt.Sprintf("/api/documents/%s/file/", id)
}

// Create stores a document, moving an embedded payload to object storage when possible.
func (s *DocumentService) Create(ctx context.Context, in models.DocumentInput) (*models.Document, error) {
	if s.blobs == nil || !blob.IsDataURL(in.FileURL) {
		return s.storage.CreateDocument(in)
	}

	key, err := s.upload(ctx, in)
	if err != nil {
		return nil, err
	}

	in.FileURL = ""
	doc, err := s.storage.CreateDocument(in)
	if err != nil {
		s.rollback(ctx, key)
		return nil, err
	}

	updated, err := s.storage.UpdateDocument(doc.ID, func(d *models.Document) error {
		d.StorageKey = key
		d.FileURL = FileURL(d.ID)
		return nil
	})
	if err != nil || updated == nil {
		// Either the write failed or the document was deleted in between.
		s.rollback(ctx, key)
		if _, delErr := s.storage.DeleteDocument(doc.ID); delErr != nil {
			log.Error().Err(delErr).Str("id", doc.ID).Msg("Failed to remove document after storage error")
		}
		if err == nil {
			err = fmt.Errorf("document %s removed while storing its file", doc.ID)
		}
		return nil, err
	}
	return updated, nil
}

// Replace updates the client fields of a document. A new embedded payload replaces
// the stored object; a payload left pointing at the download path keeps it.
func (s *DocumentService) Replace(ctx context.Context, id string, in models.DocumentInput) (*models.Document, error) {
	current, err := s.storage.GetDocumentByID(id)
	if err != nil || current == nil {
		return nil, err
	}

	var newKey string
	if s.blobs != nil && blob.IsDataURL(in.FileURL) {
		if newKey, err = s.upload(ctx, in); err != nil {
			return nil, err
		}
	}

	var oldKey string
	updated, err := s.storage.UpdateDocument(id, func(d *models.Document) error {
		oldKey = d.StorageKey
		keepBody := d.StorageKey != "" && in.FileURL == FileURL(id)
		d.DocumentInput = in
		switch {
		case newKey != "":
			d.StorageKey = newKey
			d.FileURL = FileURL(id)
		case keepBody:
			// unchanged body
		default:
			d.StorageKey = ""
		}
		return nil
	})
	if err != nil || updated == nil {
		if newKey != "" {
			s.rollback(ctx, newKey)
		}
		return nil, err
	}
	if oldKey != "" && oldKey != updated.StorageKey {
		s.rollback(ctx, oldKey)
	}
	return updated, nil
}

// Delete removes a document, then its stored object, reporting whether it existed.
// The record is gone even if removing the object fails; that error is returned.
func (s *DocumentService) Delete(ctx context.Context, id string) (bool, error) {
	doc, err := s.storage.RemoveDocument(id)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	if doc.StorageKey != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
			return true, fmt.Errorf("delete storage: %w", err)
		}
	}
	return true, nil
}

// Open resolves how to deliver the file of document id. It returns nil for an unknown id.
func (s *DocumentService) Open(ctx context.Context, id string) (*DocumentFile, error) {
	doc, err := s.storage.GetDocumentByID(id)
	if err != nil || doc == nil {
		return nil, err
	}

	switch {
	case doc.StorageKey != "":
		if s.blobs == nil {
			return nil, ErrFileUnavailable
		}
		u, err := s.blobs.PresignGet(ctx, doc.StorageKey, presignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign download: %w", err)
		}
		return &DocumentFile{RedirectURL: u}, nil
	case blob.IsDataURL(doc.FileURL):
		inline, err := blob.DecodeDataURL(doc.FileURL)
		if err != nil {
			return nil, err
		}
		return &DocumentFile{ContentType: inline.ContentType, Data: inline.Data}, nil
	case strings.HasPrefix(doc.FileURL, "http://"), strings.HasPrefix(doc.FileURL, "https://"):
		return &DocumentFile{RedirectURL: doc.FileURL}, nil
	default:
		return nil, ErrFileUnavailable
	}
}

func (s *DocumentService) upload(ctx context.Context, in models.DocumentInput) (string, error) {
	inline, err := blob.DecodeDataURL(in.FileURL)
	if err != nil {
		return "", err
	}

	key := "documents/" + uuid.NewString() + extension(in.Type)
	_, err = s.blobs.Put(ctx, key, bytes.NewReader(inline.Data), blob.PutObjectOptions{
		Size:        int64(len(inline.Data)),
		ContentType: inline.ContentType,
		Metadata:    map[string]string{"title": in.Title},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	return key, nil
}

func (s *DocumentService) rollback(ctx context.Context, key string) {
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to remove stored object")
	}
}

func extension(docType string) string {
	t := strings.ToLower(strings.TrimSpace(docType))
	if t == "" || strings.ContainsAny(t, "/\\. ") {
		return ""
	}
	return "." + t
}
