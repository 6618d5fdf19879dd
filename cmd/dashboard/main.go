package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/crime-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crime-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/crime-dashboard/internal/adapter/socrata"
	"github.com/couchcryptid/crime-dashboard/internal/adapter/sqlite"
	"github.com/couchcryptid/crime-dashboard/internal/config"
	"github.com/couchcryptid/crime-dashboard/internal/dashboard"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/couchcryptid/crime-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	communities, err := loadCommunities(cfg.CommunitiesPath)
	if err != nil {
		logger.Error("failed to load community table", "error", err)
		os.Exit(1)
	}
	logger.Info("community table loaded", "communities", communities.Len(), "path", cfg.CommunitiesPath)

	client := socrata.NewClient(socrata.Config{
		BaseURL:         cfg.SocrataBaseURL(),
		Dataset:         cfg.SocrataDataset,
		AppToken:        cfg.SocrataAppToken,
		Timeout:         cfg.SocrataTimeout,
		MaxRecords:      cfg.SocrataMaxRecords,
		RetryCount:      cfg.SocrataRetryCount,
		RetryWait:       cfg.SocrataRetryWait,
		RateLimit:       cfg.SocrataRateLimit,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}, logger, metrics)

	// Fetch cache is feature-flagged via FETCH_CACHE_SIZE (0 disables it).
	var fetcher domain.Fetcher = client
	if cfg.FetchCacheSize > 0 {
		fetcher = socrata.NewCachedFetcher(client, cfg.FetchCacheSize, cfg.FetchCacheTTL, clockwork.NewRealClock(), metrics)
		logger.Info("fetch cache enabled", "size", cfg.FetchCacheSize, "ttl", cfg.FetchCacheTTL)
	}

	svc := dashboard.New(dashboard.Config{
		FetchTimeout:      cfg.SocrataTimeout,
		DefaultStart:      cfg.DefaultStart,
		DefaultEnd:        cfg.DefaultEnd,
		DefaultCategories: cfg.DefaultCategories,
		DefaultCommunity:  cfg.DefaultCommunity,
	}, fetcher, communities, logger, metrics)
	svc.SetReadiness(client)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var history *sqlite.HistoryStore
	if cfg.HistoryDBPath != "" {
		history, err = sqlite.Open(ctx, cfg.HistoryDBPath)
		if err != nil {
			logger.Error("failed to open refresh history", "path", cfg.HistoryDBPath, "error", err)
			os.Exit(1)
		}
		svc.AddRecorder("sqlite", history)
		logger.Info("refresh history enabled", "path", cfg.HistoryDBPath)
	}

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg)
		svc.AddRecorder("kafka", publisher)
		logger.Info("kafka refresh events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	opts := httpadapter.Options{
		Addr:               cfg.HTTPAddr,
		WriteTimeout:       cfg.SocrataTimeout + 10*time.Second,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
	}
	sessions := dashboard.NewSessions(cfg.SessionCacheSize)

	var srv *httpadapter.Server
	if history != nil {
		srv = httpadapter.NewServer(opts, svc, sessions, history, logger)
	} else {
		srv = httpadapter.NewServer(opts, svc, sessions, nil, logger)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if history != nil {
		if err := history.Close(); err != nil {
			logger.Error("refresh history close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadCommunities reads the community table at path, or the embedded table
// when path is empty.
func loadCommunities(path string) (*domain.CommunityTable, error) {
	if path == "" {
		return domain.DefaultCommunities(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open community table: %w", err)
	}
	defer f.Close()
	return domain.LoadCommunities(f)
}
