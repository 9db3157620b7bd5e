package handlers

import (
	"errors"

	"portfolio/internal/models"
	"portfolio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// DocumentHandler handles HTTP requests for documents.
type DocumentHandler struct {
	storage   *services.Storage
	documents *services.DocumentService
	validate  *validator.Validate
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(storage *services.Storage, documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		storage:   storage,
		documents: documents,
		validate:  newValidator(),
	}
}

// RegisterRoutes registers the document routes. Writes go through auth.
func (h *DocumentHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	documentRoutes := router.Group("/documents")
	documentRoutes.Get("/", h.HandleListDocuments)
	documentRoutes.Get("/:id", h.HandleGetDocument)
	documentRoutes.Get("/:id/file", h.HandleDownloadDocument)
	documentRoutes.Post("/", auth, h.HandleCreateDocument)
	documentRoutes.Put("/:id", auth, h.HandleReplaceDocument)
	documentRoutes.Delete("/:id", auth, h.HandleDeleteDocument)
}

// HandleListDocuments lists documents, optionally filtered by ?category=.
func (h *DocumentHandler) HandleListDocuments(c *fiber.Ctx) error {
	var (
		documents []models.Document
		err       error
	)
	if category := c.Query("category"); category != "" && category != allCategories {
		documents, err = h.storage.ListDocumentsByCategory(category)
	} else {
		documents, err = h.storage.ListDocuments()
	}
	if err != nil {
		return internalError(c, "Could not retrieve documents", err)
	}
	return c.JSON(documents)
}

// HandleGetDocument retrieves a single document by its ID.
func (h *DocumentHandler) HandleGetDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	doc, err := h.storage.GetDocumentByID(id)
	if err != nil {
		return internalError(c, "Could not retrieve document", err)
	}
	if doc == nil {
		return notFound(c, "Document", id)
	}
	return c.JSON(doc)
}

// HandleDownloadDocument serves the document body inline or redirects to it.
func (h *DocumentHandler) HandleDownloadDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	file, err := h.documents.Open(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrFileUnavailable) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Document file not available",
			})
		}
		return internalError(c, "Could not open document file", err)
	}
	if file == nil {
		return notFound(c, "Document", id)
	}

	if file.RedirectURL != "" {
		return c.Redirect(file.RedirectURL, fiber.StatusFound)
	}
	if file.ContentType != "" {
		c.Set(fiber.HeaderContentType, file.ContentType)
	}
	// Uploaded bodies are never rendered from the API origin.
	c.Set(fiber.HeaderContentDisposition, "attachment")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	return c.Send(file.Data)
}

// HandleCreateDocument creates a new document.
func (h *DocumentHandler) HandleCreateDocument(c *fiber.Ctx) error {
	var in models.DocumentInput
	if ok, err := validateBody(c, h.validate, &in); !ok {
		return err
	}

	doc, err := h.documents.Create(c.UserContext(), in)
	if err != nil {
		return internalError(c, "Could not create document", err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// HandleReplaceDocument replaces every client field of a document.
func (h *DocumentHandler) HandleReplaceDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	var in models.DocumentInput
	if ok, err := validateBody(c, h.validate, &in); !ok {
		return err
	}

	doc, err := h.documents.Replace(c.UserContext(), id, in)
	if err != nil {
		return internalError(c, "Could not update document", err)
	}
	if doc == nil {
		return notFound(c, "Document", id)
	}
	return c.JSON(doc)
}

// HandleDeleteDocument deletes a document and its stored file.
func (h *DocumentHandler) HandleDeleteDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	existed, err := h.documents.Delete(c.UserContext(), id)
	if err != nil && !existed {
		return internalError(c, "Could not delete document", err)
	}
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Document deleted but its stored file was left behind")
	}
	if !existed {
		return notFound(c, "Document", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
