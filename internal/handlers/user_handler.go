package handlers

import (
	"errors"

	"portfolio/internal/middleware"
	"portfolio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the authenticated admin's own account.
type UserHandler struct {
	storage  *services.Storage
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(storage *services.Storage) *UserHandler {
	return &UserHandler{
		storage:  storage,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the /users/me routes, all behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users", auth)
	userRoutes.Get("/me", h.HandleGetMe)
	userRoutes.Patch("/me", h.HandleUpdateMe)
}

// UpdateMeRequest is a partial update; absent fields are left unchanged.
type UpdateMeRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=150"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Profile   *struct {
		Image *string `json:"image"`
	} `json:"profile"`
}

// HandleGetMe returns the current user.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	id := middleware.CurrentUserID(c)
	user, err := h.storage.GetUser(id)
	if err != nil {
		return internalError(c, "Could not retrieve user", err)
	}
	if user == nil {
		return notFound(c, "User", id)
	}
	return c.JSON(user)
}

// HandleUpdateMe applies a partial update to the current user.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	id := middleware.CurrentUserID(c)
	var req UpdateMeRequest
	if ok, err := validateBody(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.storage.GetUser(id)
	if err != nil {
		return internalError(c, "Could not retrieve user", err)
	}
	if user == nil {
		return notFound(c, "User", id)
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Profile != nil {
		user.Profile.Image = req.Profile.Image
	}

	updated, err := h.storage.ReplaceUser(*user)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateUsername) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Update failed",
				"error":   err.Error(),
			})
		}
		return internalError(c, "Could not update user", err)
	}
	if updated == nil {
		return notFound(c, "User", id)
	}
	return c.JSON(updated)
}
