package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

// ResponseHandler bundles dependencies for the /responses resource.
// Listings join each response to its parent questionnaire; removal is a
// soft delete.
type ResponseHandler struct {
	Responses *repository.ResponseRepo
}

func NewResponseHandler(repo *repository.ResponseRepo) *ResponseHandler {
	return &ResponseHandler{Responses: repo}
}

type responseReq struct {
	QuestionResponse string `json:"questionResponse"`
	IDQuestion       string `json:"idQuestion"`
}

// Create handles POST /responses.
func (h *ResponseHandler) Create(c echo.Context) error {
	var req responseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.QuestionResponse) == "" || req.IDQuestion == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "questionResponse and idQuestion are required"})
	}
	questionID, err := primitive.ObjectIDFromHex(req.IDQuestion)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid idQuestion"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := &model.Response{QuestionResponse: req.QuestionResponse, IDQuestion: questionID}
	if err := h.Responses.Create(ctx, resp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create response failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// List handles GET /responses with the questionnaire join.
func (h *ResponseHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Responses.FindAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// ListByQuestionnaire handles GET /responses/by-question/:id.
func (h *ResponseHandler) ListByQuestionnaire(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Responses.FindByQuestionnaire(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid questionnaire id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /responses/:id.
func (h *ResponseHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Responses.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "response not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Update handles PUT /responses/:id. Only the answer text is mutable;
// re-pointing a response at another questionnaire is not supported.
func (h *ResponseHandler) Update(c echo.Context) error {
	var req responseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.QuestionResponse) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "questionResponse is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Responses.Update(ctx, c.Param("id"), req.QuestionResponse)
	if err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "response not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /responses/:id (soft delete). Deleting an
// absent or already deleted response reports not found.
func (h *ResponseHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Responses.SoftDelete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "response not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
