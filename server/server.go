package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"Sc2Mp3/cache"
	"Sc2Mp3/config"
	"Sc2Mp3/core/audio"
	"Sc2Mp3/core/retention"
	"Sc2Mp3/core/track"
	"Sc2Mp3/logger"
)

// NewRetriever builds the orchestrator from configuration. It is shared by the
// server and the fetch command.
func NewRetriever(cfg *config.Config) *track.Retriever {
	extractor := audio.NewYtDlpExtractor(cfg.YtDlpPath, cfg.FFmpegPath, cfg.YtDlpAutoInstall)
	return track.NewRetriever(extractor, track.Options{
		Dir:          cfg.DownloadDir,
		AudioQuality: cfg.AudioQuality,
		CoverTimeout: cfg.CoverTimeout,
	})
}

// newResultCache connects to Redis when enabled. A connection failure only
// disables result reuse.
func newResultCache(cfg *config.Config) cache.ResultCache {
	if !cfg.RedisEnabled {
		return nil
	}
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, result cache disabled", logger.ErrorField(err))
		return nil
	}
	logger.Info("Successfully connected to Redis",
		logger.String("addr", fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)))
	return cache.NewRedisResultCache(cache.RedisClient, resultCacheTTL(cfg))
}

// resultCacheTTL keeps cached results from outliving their files: a TTL at or
// above the retention age is capped to five sixths of it.
func resultCacheTTL(cfg *config.Config) time.Duration {
	if cfg.ResultCacheTTL < cfg.RetentionMaxAge {
		return cfg.ResultCacheTTL
	}
	capped := cfg.RetentionMaxAge - cfg.RetentionMaxAge/6
	logger.Warn("RESULT_CACHE_TTL not below RETENTION_MAX_AGE, capping",
		logger.Duration("configured", cfg.ResultCacheTTL),
		logger.Duration("retention", cfg.RetentionMaxAge),
		logger.Duration("using", capped))
	return capped
}

// Start runs the HTTP server and the retention sweeper until SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	if err := ensureDirExists(cfg.DownloadDir); err != nil {
		return err
	}

	results := newResultCache(cfg)
	defer cache.CloseRedis()

	apiHandler := NewAPIHandler(NewRetriever(cfg), results, cfg.DownloadDir, cfg.DomainMarker)

	// No WriteTimeout: a download request holds its connection for the whole
	// extraction and transcode.
	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     NewRouter(apiHandler),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	sweeper := retention.NewSweeper(cfg.DownloadDir, cfg.RetentionMaxAge, cfg.RetentionInterval)
	sweeper.Start()
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		absDir, _ := filepath.Abs(cfg.DownloadDir)
		logger.Info("SoundCloud Downloader Server Starting...",
			logger.String("addr", "http://localhost"+cfg.Addr()),
			logger.String("downloadDir", absDir),
			logger.Duration("retention", cfg.RetentionMaxAge))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ListenAndServe error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func ensureDirExists(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logger.Info("Creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", path)
	}
	return nil
}
