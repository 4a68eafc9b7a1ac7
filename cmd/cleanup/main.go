package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/perp_board/internal/config"
	"github.com/vitos/perp_board/internal/domain"
	"github.com/vitos/perp_board/internal/infrastructure/logger"
	"github.com/vitos/perp_board/internal/infrastructure/storage"
	"github.com/vitos/perp_board/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	days := flag.Int("days", 0, "retention in days (overrides history.retention_days)")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *days > 0 {
		cfg.History.RetentionDays = *days
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var store domain.HistoryStore
	switch cfg.History.Driver {
	case "sqlite":
		store, err = storage.NewSQLiteStore(cfg.History.SQLitePath)
	case "postgres":
		pg := cfg.History.Postgres
		store, err = storage.NewPostgresStore(ctx, storage.PostgresConfig{
			Host:     pg.Host,
			Port:     pg.Port,
			Name:     pg.Name,
			User:     pg.User,
			Password: pg.Password,
			SSLMode:  pg.SSLMode,
			MaxConns: pg.MaxConns,
			MinConns: pg.MinConns,
		})
	default:
		log.Info("History is disabled, nothing to clean", zap.String("driver", cfg.History.Driver))
		return
	}
	if err != nil {
		log.Fatal("Failed to open history store", zap.Error(err))
	}
	defer store.Close()

	log.Info("Cleaning up history",
		zap.String("driver", cfg.History.Driver),
		zap.Int("retention_days", cfg.History.RetentionDays))

	deleted, err := usecase.Prune(ctx, store, cfg.History.Retention(), time.Now())
	if err != nil {
		log.Fatal("Cleanup failed", zap.Int64("deleted", deleted), zap.Error(err))
	}
	log.Info("Cleanup complete", zap.Int64("deleted", deleted))
}
