package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

// CollaboratorHandler bundles dependencies for the /collaborators
// resource. Plain CRUD, no lifecycle flag.
type CollaboratorHandler struct {
	Collaborators *repository.CollaboratorRepo
}

func NewCollaboratorHandler(repo *repository.CollaboratorRepo) *CollaboratorHandler {
	return &CollaboratorHandler{Collaborators: repo}
}

type collaboratorReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Create handles POST /collaborators.
func (h *CollaboratorHandler) Create(c echo.Context) error {
	var req collaboratorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	col := &model.Collaborator{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := h.Collaborators.Create(ctx, col); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create collaborator failed"})
	}
	return c.JSON(http.StatusCreated, col)
}

// List handles GET /collaborators.
func (h *CollaboratorHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Collaborators.FindAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /collaborators/:id.
func (h *CollaboratorHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	col, err := h.Collaborators.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrCollaboratorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collaborator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, col)
}

// Update handles PUT /collaborators/:id.
func (h *CollaboratorHandler) Update(c echo.Context) error {
	var req collaboratorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	col, err := h.Collaborators.Update(ctx, c.Param("id"), model.Collaborator{
		Name: req.Name, Email: req.Email, Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCollaboratorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collaborator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, col)
}

// Delete handles DELETE /collaborators/:id.
func (h *CollaboratorHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Collaborators.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrCollaboratorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collaborator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
