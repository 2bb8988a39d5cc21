// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/database"
	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/router"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	rootCtx, stopScheduler := context.WithCancel(context.Background())

	// Automatic monthly closing, opt-in via config
	if cfg.Billing.AutoClose {
		closingService := services.NewClosingService(db, cfg)
		go runAutoClose(rootCtx, closingService, cfg.Billing.AutoCloseDay)
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

// runAutoClose fires the monthly close for the previous period once per day
// when the configured day of month is reached. Closing is idempotent, so
// firing on consecutive days of the same month only creates records once.
func runAutoClose(ctx context.Context, closingService *services.ClosingService, dayOfMonth int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Day() < dayOfMonth {
				continue
			}
			period := services.PreviousPeriod(now)
			result, err := closingService.RunClose(ctx, period)
			if err != nil {
				logrus.WithError(err).WithField("period", period).Error("Automatic closing failed")
				continue
			}
			logrus.WithFields(logrus.Fields{
				"period":  period,
				"created": result.RecordsCreated,
				"skipped": result.RecordsSkipped,
			}).Info("Automatic closing completed")
		}
	}
}
