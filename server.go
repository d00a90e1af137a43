package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ukane-philemon/grades/internal/api"
	"github.com/ukane-philemon/grades/internal/config"
	"github.com/ukane-philemon/grades/internal/db"
	"github.com/ukane-philemon/grades/internal/grade"
	"github.com/ukane-philemon/grades/internal/logger"
	"github.com/ukane-philemon/grades/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config.Load error: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Production)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger.New error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("Grades API error", "error", err)
		log.Sync()
		os.Exit(1)
	}

	log.Sync()
}

// run serves the API until SIGINT or SIGTERM and returns once the server and
// the database connection are shut down.
func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connector := db.NewConnector(cfg.DBName, cfg.DBURL, log)
	database, err := connector.Database(ctx)
	if err != nil {
		return fmt.Errorf("connector.Database error: %w", err)
	}

	gradeRepo, err := grade.NewRepository(ctx, database)
	if err != nil {
		_ = connector.Shutdown(context.Background())
		return fmt.Errorf("grade.NewRepository error: %w", err)
	}

	server := api.NewServer(gradeRepo, log, api.Config{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Metrics:            metrics.New("grades"),
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Ensure graceful shutdown by capturing SIGINT and SIGTERM signals.
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-shutdownChan

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("httpServer.Shutdown error", "error", err)
		}

		cancel()

		dbShutdownCtx, cancelDBShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelDBShutdown()

		if err := connector.Shutdown(dbShutdownCtx); err != nil {
			log.Error("connector.Shutdown error", "error", err)
		}
	}()

	log.Info("Grades API has started successfully", "port", cfg.Port, "db", cfg.DBName)

	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		_ = connector.Shutdown(context.Background())
		return fmt.Errorf("httpServer.ListenAndServe error: %w", err)
	}

	<-shutdownDone
	log.Info("Grades API shutdown successfully...")
	return nil
}
