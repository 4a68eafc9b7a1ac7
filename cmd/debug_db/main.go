package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vitos/perp_board/internal/config"
	"github.com/vitos/perp_board/internal/domain"
	"github.com/vitos/perp_board/internal/infrastructure/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	symbol := flag.String("symbol", "BTCUSDT", "futures symbol to inspect")
	limit := flag.Int("limit", 20, "number of rows to print")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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
		})
	default:
		fmt.Printf("History is disabled (driver %q)\n", cfg.History.Driver)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Failed to open history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rows, err := store.ListHistory(ctx, strings.ToUpper(*symbol), *limit)
	if err != nil {
		fmt.Printf("Failed to list history: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d rows for %s:\n", len(rows), strings.ToUpper(*symbol))
	for _, r := range rows {
		fmt.Printf("- %s price=%g change=%.2f%% funding=%g mcap=%.0f fdv=%.0f\n",
			r.Timestamp.Format(time.RFC3339), r.Price, r.Change24h, r.FundingRate, r.MarketCap, r.FDV)
	}
}
