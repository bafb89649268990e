package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/devaloi/docsync/internal/config"
	"github.com/devaloi/docsync/internal/handler"
	"github.com/devaloi/docsync/internal/middleware"
	"github.com/devaloi/docsync/internal/registry"
	"github.com/devaloi/docsync/internal/store"
	"github.com/devaloi/docsync/internal/telemetry"
)

func main() {
	cfg := config.Load()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.Init("docsync", cfg.JaegerEndpoint)
		if err != nil {
			log.Printf("telemetry: %v (continuing without tracing)", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("telemetry shutdown: %v", err)
				}
			}()
		}
	}

	s, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer s.Close()

	reg := registry.New(cfg.MaxRooms)
	go reg.Run()
	defer reg.Stop()

	r := mux.NewRouter()
	r.HandleFunc("/health", handler.Health()).Methods(http.MethodGet)
	r.HandleFunc("/api/documents", handler.ListDocuments(reg)).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/{id}", handler.DocumentInfo(reg)).Methods(http.MethodGet)
	r.HandleFunc("/ws", handler.ServeWS(reg, s, cfg.StorageTimeout))

	var wrapped http.Handler = middleware.Logging(middleware.Recover(middleware.CORS(r)))
	if cfg.TracingEnabled {
		wrapped = middleware.Tracing(wrapped)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: wrapped,
	}

	go func() {
		log.Printf("docsync listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
