package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/perp_board/internal/config"
	"github.com/vitos/perp_board/internal/domain"
	"github.com/vitos/perp_board/internal/infrastructure/cache"
	"github.com/vitos/perp_board/internal/infrastructure/exchange"
	"github.com/vitos/perp_board/internal/infrastructure/logger"
	"github.com/vitos/perp_board/internal/infrastructure/storage"
	"github.com/vitos/perp_board/internal/usecase"
	"github.com/vitos/perp_board/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Init Exchange (Binance)
	feed := exchange.NewBinanceAdapter(cfg.Exchange.SpotURL, cfg.Exchange.FuturesURL, cfg.Exchange.MarketURL, cfg.Exchange.Timeout)

	// 4. Init Pipeline
	hub := web.NewHub(web.HubConfig{
		SendBuffer:   cfg.Hub.SendBuffer,
		WriteTimeout: cfg.Hub.WriteTimeout,
		PingInterval: cfg.Hub.PingInterval,
		PongWait:     cfg.Hub.PongWait,
	}, log)

	refs := usecase.NewReferenceData(feed)
	board := usecase.NewBoardService(feed, refs, usecase.BuildOptions{
		QuoteAsset:   cfg.Exchange.QuoteAsset,
		TradeURLBase: cfg.Exchange.TradeURLBase,
	}, log, hub)

	if cfg.Redis.Enabled {
		mirror, err := cache.NewRedisMirror(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			Channel:  cfg.Redis.Channel,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			log.Error("Redis mirror disabled", zap.Error(err))
		} else {
			defer mirror.Close()
			board.AddSink(mirror)
			log.Info("Redis mirror enabled", zap.String("addr", cfg.Redis.Addr), zap.String("key", cfg.Redis.Key))
		}
	}

	// 5. Init Storage (optional)
	var recorder *usecase.HistoryRecorder
	store, err := openHistoryStore(ctx, cfg.History)
	if err != nil {
		log.Fatal("Failed to init history store", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
		recorder = usecase.NewHistoryRecorder(board, store, log)
		log.Info("History recording enabled", zap.String("driver", cfg.History.Driver))
	}

	// 6. Init Web Server
	server := web.NewServer(cfg.Server.Port, cfg.Server.StaticDir, cfg.Server.AllowedOrigins, board, hub, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 7. Start Scheduler
	scheduler := usecase.NewScheduler(board, recorder, usecase.Intervals{
		Spot:       cfg.Intervals.Spot,
		Futures:    cfg.Intervals.Futures,
		MarketData: cfg.Intervals.MarketData,
		Snapshot:   cfg.Intervals.Snapshot,
		History:    cfg.Intervals.History,
	}, usecase.WarmupConfig{
		Timeout:    cfg.Warmup.Timeout,
		RetryDelay: cfg.Warmup.RetryDelay,
	}, log)

	if err := scheduler.Start(ctx); err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			log.Warn("Reference data incomplete after warmup, continuing with partial caches",
				zap.Any("references", refs.Stats()))
		} else {
			log.Error("Scheduler start failed", zap.Error(err))
		}
	}

	// 8. Wait for Shutdown
	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler stop failed", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

func openHistoryStore(ctx context.Context, cfg config.HistoryConfig) (domain.HistoryStore, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, storage.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Name:     cfg.Postgres.Name,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}
