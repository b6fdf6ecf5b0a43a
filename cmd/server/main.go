package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/adellanno/imob-api/internal/auth"
	"github.com/adellanno/imob-api/internal/bulk"
	"github.com/adellanno/imob-api/internal/config"
	"github.com/adellanno/imob-api/internal/database"
	"github.com/adellanno/imob-api/internal/email"
	"github.com/adellanno/imob-api/internal/handler"
	"github.com/adellanno/imob-api/internal/queue"
	"github.com/adellanno/imob-api/internal/repository"
	"github.com/adellanno/imob-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.EnsureIndexes(startupCtx, db); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	users := repository.NewUserRepo(db)
	props := repository.NewPropertyRepo(db)
	collaborators := repository.NewCollaboratorRepo(db)
	questionnaires := repository.NewQuestionnaireRepo(db)
	responses := repository.NewResponseRepo(db)

	authSvc := auth.NewService(users, queue.NewPublisher(), cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)

	// One-time fixes on startup: hash any plaintext passwords left by
	// older deployments, then make sure the bootstrap admin exists.
	if err := authSvc.MigratePlaintextPasswords(startupCtx); err != nil {
		log.Printf("password migration: %v", err)
	}
	if err := authSvc.EnsureAdmin(startupCtx); err != nil {
		log.Fatalf("admin seed: %v", err)
	}

	mailer, err := email.NewService(email.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.MailFrom,
	})
	if err != nil {
		log.Fatalf("smtp: %v", err)
	}
	go queue.StartResetCodeConsumer(mailer)

	rdb := config.NewRedisClient()
	rlCfg := config.LoadRateLimitConfig()

	h := router.Handlers{
		Auth:           handler.NewAuthHandler(authSvc),
		Users:          handler.NewUserHandler(users, authSvc, bulk.NewUserImporter(users, authSvc.HashPassword)),
		Properties:     handler.NewPropertyHandler(props, bulk.NewPropertyImporter(props)),
		Collaborators:  handler.NewCollaboratorHandler(collaborators),
		Questionnaires: handler.NewQuestionnaireHandler(questionnaires),
		Responses:      handler.NewResponseHandler(responses),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.Register(e, h, cfg.JWTSecret, rlCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
