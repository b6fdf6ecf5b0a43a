package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adellanno/imob-api/internal/bulk"
	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

// PropertyHandler bundles dependencies for the /imobs resource.
type PropertyHandler struct {
	Props    *repository.PropertyRepo
	Importer *bulk.PropertyImporter
}

func NewPropertyHandler(props *repository.PropertyRepo, imp *bulk.PropertyImporter) *PropertyHandler {
	return &PropertyHandler{Props: props, Importer: imp}
}

type propertyReq struct {
	Tipo        string `json:"tipo"`
	Rua         string `json:"rua"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	CEP         string `json:"cep"`
	Cidade      string `json:"cidade"`
	UF          string `json:"uf"`
	Obs         string `json:"obs"`
	Copasa      string `json:"copasa"`
	Cemig       string `json:"cemig"`
	IDUser      string `json:"idUser"`
}

func (r propertyReq) validate() error {
	if strings.TrimSpace(r.Tipo) == "" || strings.TrimSpace(r.Rua) == "" || strings.TrimSpace(r.Numero) == "" {
		return errors.New("tipo, rua and numero are required")
	}
	if !model.ValidTipo(r.Tipo) {
		return errors.New("unknown tipo")
	}
	return nil
}

func (r propertyReq) toModel() model.Property {
	return model.Property{
		Tipo:        r.Tipo,
		Rua:         r.Rua,
		Numero:      r.Numero,
		Complemento: r.Complemento,
		CEP:         r.CEP,
		Cidade:      r.Cidade,
		UF:          r.UF,
		Obs:         r.Obs,
		Copasa:      r.Copasa,
		Cemig:       r.Cemig,
		IDUser:      r.IDUser,
	}
}

// Create handles POST /imobs.
func (h *PropertyHandler) Create(c echo.Context) error {
	var req propertyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := req.toModel()
	if err := h.Props.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create property failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /imobs (active properties only).
func (h *PropertyHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// ListAll handles GET /imobs/all (disabled properties included).
func (h *PropertyHandler) ListAll(c echo.Context) error {
	return h.list(c, true)
}

func (h *PropertyHandler) list(c echo.Context, includeDisabled bool) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	props, err := h.Props.FindAll(ctx, includeDisabled)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, props)
}

// Get handles GET /imobs/:id.
func (h *PropertyHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Props.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Update handles PUT /imobs/:id.
func (h *PropertyHandler) Update(c echo.Context) error {
	var req propertyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Props.Update(ctx, c.Param("id"), req.toModel())
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /imobs/:id (hard delete).
func (h *PropertyHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Props.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate handles PATCH /imobs/:id/activate.
func (h *PropertyHandler) Activate(c echo.Context) error {
	return h.setDisabled(c, false)
}

// Deactivate handles PATCH /imobs/:id/deactivate.
func (h *PropertyHandler) Deactivate(c echo.Context) error {
	return h.setDisabled(c, true)
}

func (h *PropertyHandler) setDisabled(c echo.Context, disabled bool) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Props.SetDisabled(ctx, c.Param("id"), disabled)
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Import handles POST /imobs/import (multipart field "file").
func (h *PropertyHandler) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart file field required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read uploaded file"})
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	summary, err := h.Importer.Import(ctx, f)
	if err != nil {
		if errors.Is(err, bulk.ErrBadWorkbook) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Erro ao processar a planilha. Verifique o formato do arquivo e os cabeçalhos das colunas (tipo, rua, numero, complemento, cep, cidade, uf, obs, copasa, cemig).",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
	}
	return c.JSON(http.StatusOK, summary)
}

// Export handles GET /imobs/export and streams the xlsx workbook.
func (h *PropertyHandler) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	buf, err := bulk.ExportProperties(ctx, h.Props)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="imoveis.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
