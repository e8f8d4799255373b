// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv()               – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv() – build runtime Config
//   3) initLogging(cfg)           – logrus level, format, optional file
//   4) start Prometheus /healthz server on cfg.Port
//   5) run the configured backtest(s)
//
// Which backtests run is driven by the env file:
//   CANDLES_CSV=<path>   candle-level run (probabilistic fills)
//   TICKS_CSV=<path>     tick-level run (queue-position fills)
// Setting both runs both; each gets a fresh ledger.
//
// Notes:
//   - No environment exports are needed; keep editing .env and restart.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// ---- Environment & Config ----
	loadBotEnv()
	cfg := loadConfigFromEnv()
	if err := initLogging(cfg); err != nil {
		logrus.Fatalf("logging init: %v", err)
	}

	if cfg.CandlesCSV == "" && cfg.TicksCSV == "" {
		logrus.Fatal("nothing to do: set CANDLES_CSV and/or TICKS_CSV")
	}

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		logrus.Infof("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server: %v", err)
		}
	}()

	// ---- Run configured backtests ----
	if cfg.CandlesCSV != "" {
		if _, err := runCandleBacktest(cfg); err != nil {
			logrus.Fatalf("candle backtest: %v", err)
		}
	}
	if cfg.TicksCSV != "" {
		if _, err := runTickBacktest(cfg); err != nil {
			logrus.Fatalf("tick backtest: %v", err)
		}
	}

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
