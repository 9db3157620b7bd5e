package handlers

import (
	"portfolio/internal/models"
	"portfolio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// allCategories is the filter value the front end sends for "no filter".
const allCategories = "All"

// ProjectHandler handles HTTP requests for projects.
type ProjectHandler struct {
	storage  *services.Storage
	validate *validator.Validate
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(storage *services.Storage) *ProjectHandler {
	return &ProjectHandler{
		storage:  storage,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the project routes. Writes go through auth.
func (h *ProjectHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	projectRoutes := router.Group("/projects")
	projectRoutes.Get("/", h.HandleListProjects)
	projectRoutes.Get("/:id", h.HandleGetProject)
	projectRoutes.Post("/", auth, h.HandleCreateProject)
	projectRoutes.Put("/:id", auth, h.HandleReplaceProject)
	projectRoutes.Delete("/:id", auth, h.HandleDeleteProject)
}

// HandleListProjects lists projects, optionally filtered by ?category=.
func (h *ProjectHandler) HandleListProjects(c *fiber.Ctx) error {
	var (
		projects []models.Project
		err      error
	)
	if category := c.Query("category"); category != "" && category != allCategories {
		projects, err = h.storage.ListProjectsByCategory(category)
	} else {
		projects, err = h.storage.ListProjects()
	}
	if err != nil {
		return internalError(c, "Could not retrieve projects", err)
	}
	return c.JSON(projects)
}

// HandleGetProject retrieves a single project by its ID.
func (h *ProjectHandler) HandleGetProject(c *fiber.Ctx) error {
	id := c.Params("id")
	project, err := h.storage.GetProjectByID(id)
	if err != nil {
		return internalError(c, "Could not retrieve project", err)
	}
	if project == nil {
		return notFound(c, "Project", id)
	}
	return c.JSON(project)
}

// HandleCreateProject creates a new project.
func (h *ProjectHandler) HandleCreateProject(c *fiber.Ctx) error {
	var in models.ProjectInput
	if ok, err := validateBody(c, h.validate, &in); !ok {
		return err
	}

	project, err := h.storage.CreateProject(in)
	if err != nil {
		return internalError(c, "Could not create project", err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// HandleReplaceProject replaces every client field of a project.
func (h *ProjectHandler) HandleReplaceProject(c *fiber.Ctx) error {
	id := c.Params("id")
	var in models.ProjectInput
	if ok, err := validateBody(c, h.validate, &in); !ok {
		return err
	}

	project, err := h.storage.ReplaceProject(id, in)
	if err != nil {
		return internalError(c, "Could not update project", err)
	}
	if project == nil {
		return notFound(c, "Project", id)
	}
	return c.JSON(project)
}

// HandleDeleteProject deletes a project.
func (h *ProjectHandler) HandleDeleteProject(c *fiber.Ctx) error {
	id := c.Params("id")
	existed, err := h.storage.DeleteProject(id)
	if err != nil {
		return internalError(c, "Could not delete project", err)
	}
	if !existed {
		return notFound(c, "Project", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
