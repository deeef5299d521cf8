package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard/internal/api"
	"dashboard/internal/config"
	"dashboard/internal/engine"
	"dashboard/internal/logger"
	"dashboard/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logger.Setup("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	lg := logger.Get("main")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// The API is live immediately and answers 503 until the dataset is in.
	h := api.NewHandler(nil, m)
	e := api.NewServer(h, api.ServerOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Gatherer:    reg,
		Logger:      logger.Get("http"),
	})

	catalog := engine.NewCatalog()
	go func() {
		lg.Info().Str("source", cfg.Data.Source).Msg("Loading dataset in background")
		t0 := time.Now()

		ds, err := catalog.Load(cfg.Data.Source)
		if err != nil {
			// A structurally broken source ends the process: nothing can be rendered.
			lg.Fatal().Err(err).Msg("Dataset load failed")
		}
		h.SetData(ds)

		lg.Info().
			Int("rows", ds.Len()).
			Int("dropped", ds.Dropped()).
			Dur("elapsed", time.Since(t0)).
			Msg("Dataset ready")
	}()

	go func() {
		lg.Info().Str("addr", cfg.Server.Addr()).Msg("Server listening (dataset loading in background)")
		if err := e.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	lg.Info().Str("signal", sig.String()).Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
