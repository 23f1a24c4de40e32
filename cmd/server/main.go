package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/database"
	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/queue"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/router"
	"github.com/taskhive/taskhive/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	workspaces := repository.NewWorkspaceRepo(db)
	todos := repository.NewTodoRepo(db)
	events := repository.NewEventRepo(db)

	authSvc := service.NewAuthService(cfg, db, users, tokens)

	indexer := service.NewIndexer(queue.PublishTodoIndex, 256)
	defer indexer.Close()
	go queue.StartIndexConsumer()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(cfg.Env)

	router.Register(e, cfg, rdb, workspaces, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Me:        handler.NewMeHandler(users, authSvc),
		Workspace: handler.NewWorkspaceHandler(workspaces, users),
		Todo:      handler.NewTodoHandler(todos, indexer),
		Event:     handler.NewEventHandler(events),
		Health:    handler.NewHealthHandler(db),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
