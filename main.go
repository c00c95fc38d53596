package main

import (
	"context"
	"embed"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"disputelens/adapters/api"
	"disputelens/adapters/db"
	"disputelens/adapters/excel"
	"disputelens/internal"
	"disputelens/internal/config"
	"disputelens/ui"
)

//go:embed ui/templates/*.html ui/static/*
var embeddedFiles embed.FS

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))
	gin.SetMode(appConfig.Server.GinMode)

	ctx := context.Background()
	conn, err := db.Open(ctx, appConfig.Store.DSN)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer conn.Close()
	logger.Info("session store ready (driver %s)", db.DriverFor(appConfig.Store.DSN))

	backend := api.NewClient(api.ClientConfig{
		BaseURL: appConfig.Backend.URL,
		Timeout: appConfig.Backend.Timeout,
		Tracing: appConfig.Tracing.Enabled,
	}, logger)

	server := ui.NewServer(embeddedFiles, ui.Deps{
		Backend: backend,
		Store:   db.NewSessionRepository(conn),
		Reader:  excel.NewDataReader(excel.DefaultExcelConfig()),
		UI:      appConfig.UI,
		Logger:  logger,
	})
	if err := server.Initialize(); err != nil {
		log.Fatalf("Failed to initialize UI server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Dispute Analysis UI listening on http://localhost:%s (backend %s)", appConfig.Server.Port, appConfig.Backend.URL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed: %v", err)
	}
}
