// Command devbackend serves canned dispute-analysis responses on the backend
// endpoints so the UI and CLI can be exercised without the real server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"disputelens/adapters/excel"
	"disputelens/internal"
)

func main() {
	_ = godotenv.Load()

	addr := os.Getenv("DEVBACKEND_ADDR")
	if addr == "" {
		addr = ":5000"
	}
	logger := internal.NewDefaultLogger()

	fixture := newFixtureServer(excel.NewDataReader(excel.DefaultExcelConfig()), logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           fixture.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[DevBackend] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[DevBackend] server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[DevBackend] shutdown error: %v", err)
	}
}
