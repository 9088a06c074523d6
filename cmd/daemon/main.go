// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clipforge/clipforge/internal/api"
	"github.com/clipforge/clipforge/internal/cache"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/extract"
	"github.com/clipforge/clipforge/internal/health"
	"github.com/clipforge/clipforge/internal/history"
	cflog "github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/pipeline"
	"github.com/clipforge/clipforge/internal/publish"
	"github.com/clipforge/clipforge/internal/sysinfo"
	"github.com/clipforge/clipforge/internal/transcode"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	cflog.Configure(cflog.Config{Level: "info", Service: "clipforge", Version: version})
	logger := cflog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	cflog.Configure(cflog.Config{Level: cfg.LogLevel, Service: "clipforge", Version: version})

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("data directory unavailable")
	}

	advice := sysinfo.Detect()
	logger.Info().
		Int("encoder_threads", advice.Threads).
		Str("encoder_preset", advice.Preset).
		Msg("resource advice")

	runner := &extract.CLIRunner{Bin: cfg.YTDLPBin, Logger: cflog.WithComponent("ytdlp")}
	executor := extract.NewExecutor(runner, cfg.CookiesFile, cflog.WithComponent("extract"))
	pacer := extract.NewPacer(float64(cfg.ProcessRatePerMin), 1)
	orchestrator := extract.NewOrchestrator(executor, cfg.CookiesFile, pacer, cflog.WithComponent("extract"))

	controller := transcode.NewController(cfg.FFmpegBin, cfg.FFprobeBin,
		cfg.EncodeTimeout(), cfg.ProbeTimeout(), advice, cflog.WithComponent("transcode"))

	store := &publish.HTTPStore{
		CloudName: cfg.StoreCloudName,
		APIKey:    cfg.StoreAPIKey,
		APISecret: cfg.StoreAPISecret,
		UploadURL: cfg.StoreUploadURL,
	}
	publisher := publish.NewPublisher(store, cfg.MaxVideoBytes(), cflog.WithComponent("publish"))

	coordinator := &pipeline.Coordinator{
		Extractor:  orchestrator,
		Transcoder: controller,
		Uploader:   publisher,
		WorkRoot:   filepath.Join(cfg.DataDir, "work"),
		DataDir:    cfg.DataDir,
		Logger:     cflog.WithComponent("pipeline"),
	}

	healthMgr := health.NewManager(version)
	healthMgr.Register(health.NewEncoderChecker(cfg.FFmpegBin))
	healthMgr.Register(health.NewBinaryChecker("ffprobe", cfg.FFprobeBin))
	healthMgr.Register(health.NewBinaryChecker("yt-dlp", cfg.YTDLPBin))
	healthMgr.Register(health.NewDirChecker("data_dir", cfg.DataDir))

	if cfg.RedisAddr != "" {
		resultCache, err := cache.NewRedis(cfg.RedisAddr, cache.DefaultTTL, cflog.WithComponent("cache"))
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("result cache disabled")
		} else {
			defer func() { _ = resultCache.Close() }()
			coordinator.Cache = resultCache
			healthMgr.Register(health.NewPingChecker("redis", resultCache.Ping))
		}
	}

	jobStore, err := history.NewStore(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open job history")
	}
	defer func() { _ = jobStore.Close() }()
	coordinator.History = jobStore

	server := &api.Server{
		Processor:     coordinator,
		Jobs:          jobStore,
		Health:        healthMgr,
		RatePerMinute: cfg.ProcessRatePerMin,
		Logger:        cflog.WithComponent("api"),
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Processing is synchronous over the request; no write timeout.
	}

	go func() {
		logger.Info().Str("listen", cfg.Listen).Str("version", version).Msg("daemon started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
	logger.Info().Msg("daemon stopped")
}
