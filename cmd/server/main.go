package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentd/internal/api"
	"github.com/TimurManjosov/segmentd/internal/config"
	"github.com/TimurManjosov/segmentd/internal/store"
	"github.com/TimurManjosov/segmentd/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "segmentd").Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	ctx := context.Background()
	st, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.StoreType).Msg("store init")
	}
	defer st.Close()

	telemetry.Init()

	srvAPI := api.NewServer(st, cfg.Env, cfg.AdminAPIKey)
	srvAPI.SetRateLimit(cfg.RateLimitPerIP)

	// file-backed deployments declare an attribute schema alongside the
	// segments and pick up file edits at runtime
	if fs, ok := st.(*store.FileStore); ok {
		if sch := fs.Schema(); sch != nil {
			srvAPI.SetSchema(sch)
			log.Info().Strs("fields", sch.Names()).Msg("attribute schema enforced")
		}
		go func() {
			err := fs.Watch(ctx, log, func() {
				if err := srvAPI.RebuildSnapshot(ctx); err != nil {
					log.Error().Err(err).Msg("snapshot rebuild after reload")
				}
			})
			if err != nil {
				log.Error().Err(err).Msg("segments file watcher stopped")
			}
		}()
	}

	// initial snapshot
	if err := srvAPI.RebuildSnapshot(ctx); err != nil {
		log.Fatal().Err(err).Msg("initial snapshot")
	}

	// metrics on a separate listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env).Str("store", cfg.StoreType).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}
