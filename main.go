package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"teambot/internal/config"
	"teambot/internal/gateway/discord"
	"teambot/internal/provision"
	"teambot/internal/service"
	"teambot/internal/storage"
	"teambot/internal/storage/memory"
	"teambot/internal/storage/postgres"
	httptransport "teambot/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	repo, cleanup, err := buildRepository(context.Background(), cfg)
	if err != nil {
		log.Fatalf("init repository: %v", err)
	}
	defer cleanup()

	bot, err := discord.New(cfg.Discord)
	if err != nil {
		log.Fatalf("init discord gateway: %v", err)
	}

	engine := provision.NewEngine(bot, cfg.Workflow.DeveloperRole, cfg.Workflow.ModeratorRole)
	svc := service.New(repo, bot, engine, service.Options{
		AdminChannelID: cfg.Discord.AdminChannelID,
		PromptWindow:   cfg.Workflow.PromptWindow,
	})
	bot.Attach(svc)

	handler := httptransport.NewHandler(svc)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := bot.Run(ctx); err != nil {
			log.Fatalf("discord gateway error: %v", err)
		}
	}()

	go func() {
		log.Printf("ops server listening on %s (storage=%s)", cfg.HTTP.Addr(), cfg.Storage.Type)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ops server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ops server shutdown error: %v", err)
	}
}

func buildRepository(ctx context.Context, cfg config.Config) (storage.Repository, func(), error) {
	switch cfg.Storage.Type {
	case "postgres":
		store, err := postgres.New(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "memory":
		return memory.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
