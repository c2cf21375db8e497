package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tjorim/belgiantrain"
	"github.com/tjorim/belgiantrain/config"
	"github.com/tjorim/belgiantrain/irail"
	"github.com/tjorim/belgiantrain/publish"
	"github.com/tjorim/belgiantrain/stations"
)

func init() {
	if err := godotenv.Load(".env"); err != nil {
		log.Print("godotenv.Load could not find env file - if REDIS_PASSWORD is set elsewhere ignore this error")
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

func main() {
	configPath := flag.String("config", "", "config file path (default: config.yml, ./config/config.yml)")
	mode := flag.String("mode", "serve", "serve|oneshot")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	flag.Parse()

	logger := newLogger(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Migrated {
		logger.Warn("version 1 configuration migrated in memory, rewrite the file as version 2")
	}

	opts := []irail.Option{irail.WithLang(cfg.IRail.Lang)}
	if cfg.IRail.BaseURL != "" {
		opts = append(opts, irail.WithBaseURL(cfg.IRail.BaseURL))
	}
	if cfg.IRail.TimeoutMS > 0 {
		opts = append(opts, irail.WithTimeout(time.Duration(cfg.IRail.TimeoutMS)*time.Millisecond))
	}
	if cfg.IRail.HTTP2 {
		opts = append(opts, irail.WithHTTP2())
	}
	client := irail.New(opts...)

	ctx := context.Background()

	fetchCtx, cancelFetch := context.WithTimeout(ctx, 30*time.Second)
	list, err := client.Stations(fetchCtx)
	cancelFetch()
	if err != nil {
		logger.Error("failed to fetch station catalogue", "error", err)
		os.Exit(1)
	}
	catalogue := stations.New(list)
	logger.Info("station catalogue loaded", "stations", catalogue.Len())

	svc, err := belgiantrain.New(cfg, logger, client, catalogue)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	if cfg.Redis.Enabled {
		rdb, err := publish.Connect(ctx, logger, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// The mirror is an add-on; sensors keep working without it.
			logger.Error("redis unavailable, state mirror disabled", "error", err)
		} else {
			svc.EnablePublisher(publish.New(rdb, logger, cfg.Redis.ChannelPrefix, svc.PollInterval()))
			if err := svc.PurgeMirror(ctx); err != nil {
				logger.Warn("mirror purge failed", "error", err)
			}
		}
	}

	switch *mode {
	case "oneshot":
		svc.RefreshAll(ctx)
		buf, err := json.MarshalIndent(svc.States(), "", "  ")
		if err != nil {
			logger.Error("failed to render states", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(buf))
		if !svc.AnyHealthy() {
			os.Exit(1)
		}
	case "serve":
		runCtx, cancel := context.WithCancel(ctx)
		go svc.Run(runCtx)
		svc.StartServer()
		svc.WaitForShutdown(cancel)
	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}
}
