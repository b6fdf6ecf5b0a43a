package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/adellanno/imob-api/internal/repository"
)

// A malformed id in the by-question listing is a client error, answered
// before the repository touches the database.
func TestListByQuestionnaireMalformedID(t *testing.T) {
	h := NewResponseHandler(new(repository.ResponseRepo))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/responses/by-question/not-a-hex-id", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-hex-id")

	if err := h.ListByQuestionnaire(c); err != nil {
		t.Fatalf("ListByQuestionnaire: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
