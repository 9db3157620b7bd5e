package services

import (
	"portfolio/internal/models"

	"github.com/rs/zerolog/log"
)

// ContactPublisher announces new contact messages, e.g. to a mail worker.
type ContactPublisher interface {
	PublishContactMessage(msg models.ContactMessage) error
}

// ContactService stores contact form submissions and announces them.
type ContactService struct {
	storage   *Storage
	publisher ContactPublisher
}

// NewContactService creates a ContactService. publisher may be nil.
func NewContactService(storage *Storage, publisher ContactPublisher) *ContactService {
	return &ContactService{storage: storage, publisher: publisher}
}

// Submit stores the message, then publishes it. A publish failure does not fail the submit.
func (s *ContactService) Submit(in models.ContactInput) (*models.ContactMessage, error) {
	msg, err := s.storage.CreateContactMessage(in)
	if err != nil {
		return nil, err
	}

	if s.publisher == nil {
		log.Debug().Str("id", msg.ID).Msg("No contact publisher configured, skipping notification")
		return msg, nil
	}
	if err := s.publisher.PublishContactMessage(*msg); err != nil {
		log.Warn().Err(err).Str("id", msg.ID).Msg("Failed to publish contact message event")
	} else {
		log.Info().Str("id", msg.ID).Msg("Published contact message event")
	}
	return msg, nil
}

// List returns all stored contact messages.
func (s *ContactService) List() ([]models.ContactMessage, error) {
	return s.storage.ListContactMessages()
}
