package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adellanno/imob-api/internal/auth"
	"github.com/adellanno/imob-api/internal/bulk"
	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UserHandler bundles dependencies for the /users resource.
type UserHandler struct {
	Users    *repository.UserRepo
	Auth     *auth.Service
	Importer *bulk.UserImporter
}

func NewUserHandler(users *repository.UserRepo, a *auth.Service, imp *bulk.UserImporter) *UserHandler {
	return &UserHandler{Users: users, Auth: a, Importer: imp}
}

// ----- DTOs -----

type createUserReq struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
	CPF      string   `json:"cpf"`
	Phone    string   `json:"phone"`
	Cargo    string   `json:"cargo"`
}

type updateUserReq struct {
	Name     *string  `json:"name"`
	Email    *string  `json:"email"`
	Password *string  `json:"password"`
	Roles    []string `json:"roles"`
	CPF      *string  `json:"cpf"`
	Phone    *string  `json:"phone"`
	Cargo    *string  `json:"cargo"`
}

type updatePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

type resetPasswordReq struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// normalizeRoles validates a role list, defaulting to USER when empty.
func normalizeRoles(roles []string) ([]string, error) {
	if len(roles) == 0 {
		return []string{model.RoleUser}, nil
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if !model.ValidRole(r) {
			return nil, fmt.Errorf("unknown role %q", r)
		}
		out = append(out, r)
	}
	return out, nil
}

// Create handles POST /users.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}
	roles, err := normalizeRoles(req.Roles)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	hash, err := h.Auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: hash,
		Roles:    roles,
		CPF:      req.CPF,
		Phone:    req.Phone,
		Cargo:    req.Cargo,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, u)
}

// List handles GET /users (active users only).
func (h *UserHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// ListAll handles GET /users/all (disabled users included).
func (h *UserHandler) ListAll(c echo.Context) error {
	return h.list(c, true)
}

func (h *UserHandler) list(c echo.Context, includeDisabled bool) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.FindAll(ctx, includeDisabled)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// ListByRole handles GET /users/role/:role.
func (h *UserHandler) ListByRole(c echo.Context) error {
	role := strings.ToUpper(strings.TrimSpace(c.Param("role")))
	if !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.FindByRole(ctx, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /users/:id. Disabled users are invisible here, like
// in the default listing.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.IsDisabled {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, u)
}

// Update handles PUT /users/:id. A password in the body is re-hashed;
// other absent fields are left untouched.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	upd := repository.UserUpdate{
		Name:  req.Name,
		Email: req.Email,
		CPF:   req.CPF,
		Phone: req.Phone,
		Cargo: req.Cargo,
	}
	if req.Roles != nil {
		roles, err := normalizeRoles(req.Roles)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		upd.Roles = roles
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, c.Param("id"), upd)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := h.Auth.HashPassword(*req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /users/:id (hard delete).
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdatePassword handles PUT /users/:id/password.
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "currentPassword and newPassword are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Auth.ChangePassword(ctx, c.Param("id"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		if errors.Is(err, auth.ErrWrongPassword) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password incorrect"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ForgotPassword handles POST /users/forgot-password. The answer is the
// same whether or not the email exists.
func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.ForgotPassword(ctx, req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetPassword handles POST /users/reset-password.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, code and newPassword are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidResetCode) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset code invalid or expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate handles PATCH /users/:id/activate.
func (h *UserHandler) Activate(c echo.Context) error {
	return h.setDisabled(c, false)
}

// Deactivate handles PATCH /users/:id/deactivate.
func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.setDisabled(c, true)
}

func (h *UserHandler) setDisabled(c echo.Context, disabled bool) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.SetDisabled(ctx, c.Param("id"), disabled)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// Import handles POST /users/import (multipart field "file"). The
// import is long relative to single-record calls; it gets a wider
// timeout.
func (h *UserHandler) Import(c echo.Context) error {
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
				"error": "Erro ao processar a planilha. Verifique o formato do arquivo e os cabeçalhos das colunas (name, email, cpf, phone, cargo, roles).",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
	}
	return c.JSON(http.StatusOK, summary)
}

// Export handles GET /users/export and streams the xlsx workbook.
func (h *UserHandler) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	buf, err := bulk.ExportUsers(ctx, h.Users)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="usuarios.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
