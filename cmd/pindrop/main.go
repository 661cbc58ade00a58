package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gnitoahc/go-dotenv"

	"pindrop/internal/config"
	"pindrop/internal/httpserver"
	"pindrop/internal/pin"
	"pindrop/internal/store"
	"pindrop/internal/upload"
)

func main() {
	dotenv.Load(".env")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var (
		addr    = flag.String("addr", "", "listen address (default 0.0.0.0:8080, or $PORT)")
		root    = flag.String("root", "", "storage root (default ./uploads)")
		cfgPath = flag.String("config", "", "path to config json (optional)")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			fatal(logger, "read config", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			fatal(logger, "parse config", err)
		}
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *addr != "" {
		cfg.Addr = *addr
	} else if port := dotenv.Get("PORT", ""); port != "" {
		cfg.Addr = "0.0.0.0:" + port
	}
	if err := cfg.Normalize(); err != nil {
		fatal(logger, "config", err)
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		fatal(logger, "mkdir root", err)
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		fatal(logger, "mkdir state", err)
	}

	secret, err := pin.Load(cfg.PinFile, dotenv.Get("PIN", ""))
	if err != nil {
		fatal(logger, "load pin", err)
	}

	uploads := upload.NewManager(logger)
	go func() {
		for range time.Tick(time.Minute) {
			if n := uploads.Prune(15 * time.Minute); n > 0 {
				logger.Info("pruned idle upload sessions", "count", n)
			}
		}
	}()

	srv, err := httpserver.New(httpserver.Options{
		Config:  cfg,
		Store:   store.New(cfg.Root, logger),
		Secret:  secret,
		Uploads: uploads,
		Logger:  logger,
	})
	if err != nil {
		fatal(logger, "server init", err)
	}

	hs := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
		// Long enough for chunked uploads over slow links.
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	logger.Info("pindrop listening",
		"addr", cfg.Addr, "root", cfg.Root, "pin_set", secret.IsSet())
	if err := hs.ListenAndServe(); err != nil {
		fatal(logger, "listen", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
