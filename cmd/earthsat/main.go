package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/api"
	"github.com/vsafedot/Earth-Sat/internal/auth"
	"github.com/vsafedot/Earth-Sat/internal/cache"
	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/metrics"
	"github.com/vsafedot/Earth-Sat/internal/stream"
	"github.com/vsafedot/Earth-Sat/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("EARTHSAT_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	ttl := 15 * time.Minute
	if v := os.Getenv("EARTHSAT_TLE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid EARTHSAT_TLE_TTL value, using default", "value", v, "default", 900)
		} else {
			ttl = time.Duration(n) * time.Second
		}
	}

	store := tle.NewStore(ttl)
	eng := engine.New(store, loadEngineConfig(logger), logger)

	// Load the element catalog from disk at startup.
	tleFile := os.Getenv("EARTHSAT_TLE_FILE")
	if tleFile == "" {
		logger.Info("EARTHSAT_TLE_FILE not set, starting without a catalog")
	} else {
		f, err := os.Open(tleFile)
		if err != nil {
			logger.Error("cannot open TLE file", "path", tleFile, "error", err)
			os.Exit(1)
		}
		cat, err := eng.LoadCatalog(f)
		f.Close()
		if err != nil {
			logger.Error("cannot parse TLE file", "path", tleFile, "error", err)
			os.Exit(1)
		}
		logger.Info("catalog loaded from file",
			"path", tleFile,
			"satellites", len(cat.Sets),
			"skipped", len(cat.Skipped),
		)
	}

	fleet := cache.NewFleetCache(loadCacheConfig(logger), eng, logger)

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(fleet, store, streamCfg, logger)

	srv := api.NewServer(addr, logger, authCfg, eng, store, fleet, streamHandler)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the fleet snapshot refresher.
	go fleet.Start(ctx)

	// Background goroutine to update the catalog age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetCatalogAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("EARTHSAT_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("EARTHSAT_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("EARTHSAT_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("EARTHSAT_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadEngineConfig(logger *slog.Logger) engine.Config {
	cfg := engine.Config{
		MinElevationDeg: 10.0,
		Workers:         runtime.NumCPU(),
		PassWindow:      24 * time.Hour,
		TrackStep:       30 * time.Second,
	}

	if v := os.Getenv("EARTHSAT_MIN_ELEVATION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f >= 90 {
			logger.Warn("invalid EARTHSAT_MIN_ELEVATION value, using default", "value", v, "default", 10)
		} else {
			cfg.MinElevationDeg = f
		}
	}

	if v := os.Getenv("EARTHSAT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSAT_WORKERS value, using default", "value", v, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}

	logger.Info("engine config",
		"min_elevation", cfg.MinElevationDeg,
		"workers", cfg.Workers,
		"pass_window_hours", cfg.PassWindow.Hours(),
		"track_step_seconds", cfg.TrackStep.Seconds(),
	)

	return cfg
}

func loadCacheConfig(logger *slog.Logger) cache.Config {
	cfg := cache.Config{
		Interval: 5 * time.Second,
		MaxAge:   30 * time.Second,
	}

	if v := os.Getenv("EARTHSAT_CACHE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSAT_CACHE_INTERVAL value, using default", "value", v, "default", 5)
		} else {
			cfg.Interval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("EARTHSAT_CACHE_MAX_AGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSAT_CACHE_MAX_AGE value, using default", "value", v, "default", 30)
		} else {
			cfg.MaxAge = time.Duration(n) * time.Second
		}
	}

	logger.Info("cache config",
		"interval_seconds", cfg.Interval.Seconds(),
		"max_age_seconds", cfg.MaxAge.Seconds(),
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("EARTHSAT_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSAT_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("EARTHSAT_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSAT_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("EARTHSAT_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid EARTHSAT_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = b
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}
