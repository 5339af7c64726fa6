package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/progrid/progrid/internal/adapter/directory"
	"github.com/progrid/progrid/internal/adapter/fsm"
	"github.com/progrid/progrid/internal/adapter/otel"
	"github.com/progrid/progrid/internal/adapter/payment"
	"github.com/progrid/progrid/internal/adapter/river"
	"github.com/progrid/progrid/internal/adapter/sqlite"
	"github.com/progrid/progrid/internal/app"
	"github.com/progrid/progrid/internal/config"

	handler "github.com/progrid/progrid/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("progrid: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	riverClient, err := river.Setup(ctx, db)
	if err != nil {
		return fmt.Errorf("river setup: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			slog.Error("river stop", "error", err)
		}
	}()

	// --- Application ---
	svc := app.NewTournamentService(app.Deps{
		Tournaments:   otel.NewTracingRepository(store.Tournaments),
		Participants:  store.Participants,
		Payments:      store.Payments,
		Distributions: store.Distributions,
		Directory:     directory.NewStatic(cfg.AdminIDs),
		Gateway:       payment.NewDevGateway(),
		Sink:          otel.NewTracingSink(river.NewSink(riverClient)),
		Validator:     fsm.New(),
	})

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(otelchi.Middleware("progrid", otelchi.WithChiRoutes(router)))
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	api := humachi.New(router, huma.DefaultConfig("progrid", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("progrid listening", "port", cfg.Port)
		slog.Info("API docs", "url", fmt.Sprintf("http://localhost:%d/docs", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("stopped")
	return nil
}
