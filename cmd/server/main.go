package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"tubeconv/internal/application/media"
	"tubeconv/internal/application/users"
	"tubeconv/internal/config"
	"tubeconv/internal/infrastructure/ffmpeg"
	"tubeconv/internal/infrastructure/filesystem"
	"tubeconv/internal/infrastructure/s3mirror"
	"tubeconv/internal/infrastructure/sqlstore"
	"tubeconv/internal/infrastructure/ytdlp"
	httptransport "tubeconv/internal/transport/http"
)

const shutdownTimeout = 60 * time.Second

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	store := filesystem.NewStore(cfg.FilesDir)
	if err := store.EnsureDir(); err != nil {
		fatal(logger, "storage init failed", err)
	}

	opts := media.Options{
		MaxConcurrent: cfg.MaxConcurrentJobs,
		JobTimeout:    cfg.JobTimeout,
		YouTubeOnly:   cfg.RestrictToYouTube,
	}
	if cfg.S3Bucket != "" {
		mirror, err := s3mirror.New(s3mirror.Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3Key,
			SecretKey:    cfg.S3Secret,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyleEndpoint,
			Prefix:       cfg.S3Prefix,
		})
		if err != nil {
			fatal(logger, "s3 mirror init failed", err)
		}
		opts.Mirror = mirror
		logger.Info("s3 mirror enabled", "bucket", cfg.S3Bucket)
	}

	mediaService := media.NewService(
		store,
		ytdlp.NewFetcher(cfg.YtDlpBinary),
		ffmpeg.NewConverter(cfg.FFmpegBinary),
		logger,
		opts,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mediaService.StartRetention(ctx, cfg.FileRetention, cfg.RetentionInterval)

	var userRepo users.Repository
	if cfg.DatabaseURL != "" {
		repo, err := sqlstore.Open(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			fatal(logger, "database init failed", err)
		}
		defer repo.Close()
		userRepo = repo
	} else {
		logger.Warn("no database configured, registration disabled")
	}
	userService := users.NewService(userRepo, cfg.BcryptCost)

	handler := httptransport.NewHandler(mediaService, userService, cfg.PublicBaseURL)
	router := httptransport.NewRouter(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	var finalHandler http.Handler = c.Handler(router)
	finalHandler = httptransport.Logging(logger)(finalHandler)
	finalHandler = httptransport.RequestID(finalHandler)
	finalHandler = httptransport.Recovery(logger)(finalHandler)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           finalHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "addr", cfg.ServerAddr, "files_dir", store.Root())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "listen error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server exited", "active_jobs", mediaService.ActiveJobs())
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
