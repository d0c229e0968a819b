package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/user-service/internal/config"
	"github.com/wichananm65/user-service/internal/database"
	"github.com/wichananm65/user-service/internal/logging"
	"github.com/wichananm65/user-service/internal/router"
	"github.com/wichananm65/user-service/internal/user"
)

// main wires dependencies and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer closeRepo()

	userService := user.NewService(repo)
	userHandler := user.NewHandler(userService, logger)

	app := router.New(router.Options{
		AllowOrigins: cfg.AllowOrigins,
		JWTSecret:    cfg.JWTSecret,
	}, logger, userHandler)

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    cfg.Addr,
			"storage": cfg.Storage,
			"auth":    cfg.JWTSecret != "",
		}).Info("starting server")
		if err := app.Listen(cfg.Addr); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.WithError(err).Error("shutdown")
	}
}

// openRepository builds the configured storage backend and seeds it with
// the demo user when it is empty.
func openRepository(cfg config.Config, logger *logrus.Logger) (user.Repository, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		repo    user.Repository
		closeFn = func() {}
	)

	switch cfg.Storage {
	case config.StorageMemory:
		repo = user.NewInMemoryRepository(nil)
	default:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Warn("close database")
			}
		}

		dialect := user.Postgres
		if cfg.Storage == config.StorageSQLite {
			dialect = user.SQLite
		}
		sqlRepo := user.NewSQLRepository(db, dialect)
		if err := sqlRepo.Migrate(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		repo = sqlRepo
	}

	if cfg.SeedDemo {
		if err := seed(ctx, repo, logger); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return repo, closeFn, nil
}

func seed(ctx context.Context, repo user.Repository, logger *logrus.Logger) error {
	existing, err := repo.SelectAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, u := range user.SeedUsers() {
		if _, err := repo.Insert(ctx, u.UID, u); err != nil {
			return err
		}
		logger.WithField("user_uid", u.UID).Debug("seeded demo user")
	}
	return nil
}
