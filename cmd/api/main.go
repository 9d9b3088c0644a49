package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/psundaram/drillmaster/internal/config"
	"github.com/psundaram/drillmaster/internal/handler"
	"github.com/psundaram/drillmaster/internal/model/persona"
	"github.com/psundaram/drillmaster/internal/service/ai"
	authservice "github.com/psundaram/drillmaster/internal/service/auth"
	chatservice "github.com/psundaram/drillmaster/internal/service/chat"
	"github.com/psundaram/drillmaster/internal/service/session"
	taskservice "github.com/psundaram/drillmaster/internal/service/task"
	"github.com/psundaram/drillmaster/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	repo, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}()

	aiSvc, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}

	authSvc := authservice.NewService(repo)
	if cfg.Admin.Enabled() {
		if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatalf("failed to bootstrap admin account: %v", err)
		}
	} else {
		log.Println("admin bootstrap credentials not configured, skipping")
	}

	taskSvc := taskservice.NewService(repo)
	chatSvc := chatservice.NewService(repo, taskSvc, aiSvc, persona.Default(), cfg.Chat.HistoryLimit)
	sessions := session.NewService()

	router := handler.NewRouter(repo, authSvc, chatSvc, taskSvc, sessions)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("drillmaster backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
