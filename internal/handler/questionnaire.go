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

// QuestionnaireHandler bundles dependencies for the /questionnaires
// resource. Removal is a soft delete.
type QuestionnaireHandler struct {
	Questionnaires *repository.QuestionnaireRepo
}

func NewQuestionnaireHandler(repo *repository.QuestionnaireRepo) *QuestionnaireHandler {
	return &QuestionnaireHandler{Questionnaires: repo}
}

type questionnaireReq struct {
	Question string `json:"question"`
}

// Create handles POST /questionnaires.
func (h *QuestionnaireHandler) Create(c echo.Context) error {
	var req questionnaireReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "question is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q := &model.Questionnaire{Question: req.Question}
	if err := h.Questionnaires.Create(ctx, q); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create questionnaire failed"})
	}
	return c.JSON(http.StatusCreated, q)
}

// List handles GET /questionnaires (soft-deleted entries excluded).
func (h *QuestionnaireHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Questionnaires.FindAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /questionnaires/:id.
func (h *QuestionnaireHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Questionnaires.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrQuestionnaireNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "questionnaire not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, q)
}

// Update handles PUT /questionnaires/:id.
func (h *QuestionnaireHandler) Update(c echo.Context) error {
	var req questionnaireReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "question is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Questionnaires.Update(ctx, c.Param("id"), req.Question)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionnaireNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "questionnaire not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, q)
}

// Delete handles DELETE /questionnaires/:id (soft delete).
func (h *QuestionnaireHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Questionnaires.SoftDelete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrQuestionnaireNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "questionnaire not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
