// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/adellanno/imob-api/internal/config"
	"github.com/adellanno/imob-api/internal/handler"
	"github.com/adellanno/imob-api/internal/middleware"
	"github.com/adellanno/imob-api/internal/model"
)

// Handlers collects every resource handler the router registers.
type Handlers struct {
	Auth           *handler.AuthHandler
	Users          *handler.UserHandler
	Properties     *handler.PropertyHandler
	Collaborators  *handler.CollaboratorHandler
	Questionnaires *handler.QuestionnaireHandler
	Responses      *handler.ResponseHandler
}

// Register sets up the full route table. Login and the password reset
// endpoints are public but rate limited; everything else requires a
// valid access token, with the administrative user operations
// additionally gated on the ADMIN role.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limited := middleware.NewTokenBucket(rlCfg, rdb)
	e.POST("/auth/login", h.Auth.Login, limited)
	e.POST("/users/forgot-password", h.Users.ForgotPassword, limited)
	e.POST("/users/reset-password", h.Users.ResetPassword, limited)

	api := e.Group("", middleware.JWTAuth(jwtSecret))

	admin := middleware.RequireRole(model.RoleAdmin)

	users := api.Group("/users")
	users.POST("", h.Users.Create)
	users.GET("", h.Users.List, admin)
	users.GET("/all", h.Users.ListAll, admin)
	users.GET("/role/:role", h.Users.ListByRole, admin)
	users.GET("/export", h.Users.Export, admin)
	users.POST("/import", h.Users.Import, admin)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete, admin)
	users.PUT("/:id/password", h.Users.UpdatePassword)
	users.PATCH("/:id/activate", h.Users.Activate, admin)
	users.PATCH("/:id/deactivate", h.Users.Deactivate, admin)

	imobs := api.Group("/imobs")
	imobs.POST("", h.Properties.Create)
	imobs.GET("", h.Properties.List)
	imobs.GET("/all", h.Properties.ListAll)
	imobs.GET("/export", h.Properties.Export)
	imobs.POST("/import", h.Properties.Import)
	imobs.GET("/:id", h.Properties.Get)
	imobs.PUT("/:id", h.Properties.Update)
	imobs.DELETE("/:id", h.Properties.Delete)
	imobs.PATCH("/:id/activate", h.Properties.Activate)
	imobs.PATCH("/:id/deactivate", h.Properties.Deactivate)

	collaborators := api.Group("/collaborators")
	collaborators.POST("", h.Collaborators.Create)
	collaborators.GET("", h.Collaborators.List)
	collaborators.GET("/:id", h.Collaborators.Get)
	collaborators.PUT("/:id", h.Collaborators.Update)
	collaborators.DELETE("/:id", h.Collaborators.Delete)

	questionnaires := api.Group("/questionnaires")
	questionnaires.POST("", h.Questionnaires.Create)
	questionnaires.GET("", h.Questionnaires.List)
	questionnaires.GET("/:id", h.Questionnaires.Get)
	questionnaires.PUT("/:id", h.Questionnaires.Update)
	questionnaires.DELETE("/:id", h.Questionnaires.Delete)

	responses := api.Group("/responses")
	responses.POST("", h.Responses.Create)
	responses.GET("", h.Responses.List)
	responses.GET("/by-question/:id", h.Responses.ListByQuestionnaire)
	responses.GET("/:id", h.Responses.Get)
	responses.PUT("/:id", h.Responses.Update)
	responses.DELETE("/:id", h.Responses.Delete)
}
