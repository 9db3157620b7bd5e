package handlers

import (
	"portfolio/internal/models"
	"portfolio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ContactHandler handles the contact form.
type ContactHandler struct {
	service  *services.ContactService
	validate *validator.Validate
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the contact routes. Listing messages requires auth.
func (h *ContactHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	contactRoutes := router.Group("/contact")
	contactRoutes.Post("/", h.HandleSubmit)
	contactRoutes.Get("/", auth, h.HandleList)
}

// HandleSubmit stores a contact form submission.
func (h *ContactHandler) HandleSubmit(c *fiber.Ctx) error {
	var in models.ContactInput
	if ok, err := validateBody(c, h.validate, &in); !ok {
		return err
	}

	msg, err := h.service.Submit(in)
	if err != nil {
		return internalError(c, "Could not send message", err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// HandleList returns every stored contact message.
func (h *ContactHandler) HandleList(c *fiber.Ctx) error {
	msgs, err := h.service.List()
	if err != nil {
		return internalError(c, "Could not retrieve messages", err)
	}
	return c.JSON(msgs)
}
