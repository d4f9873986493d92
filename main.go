package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catatbuku/config"
	"catatbuku/config/database"
	"catatbuku/internal/analysis"
	"catatbuku/internal/document/repository"
	"catatbuku/pkg/logger"
	"catatbuku/router"
	"catatbuku/socket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Sugar.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	db := database.Connect(cfg.Database)
	defer db.Close()
	if cfg.Database.Migrate {
		if err := database.Migrate(db); err != nil {
			logger.Sugar.Fatalf("Failed to migrate database: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var analyzer analysis.Analyzer
	gemini, err := analysis.NewGeminiAnalyzer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		logger.Sugar.Warnf("Page analysis is disabled: %v", err)
		analyzer = analysis.Unavailable{Err: err}
	} else {
		analyzer = gemini
	}

	hub := socket.NewHub(repository.NewDocumentRepository(db))
	handler := router.Setup(cfg, db, hub, analyzer)
	go hub.Run()

	server := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Sugar.Infof("Reading server listening on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Sugar.Fatalf("Server failed: %v", err)
	}
}
