// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the quoting engine and
// the two fill simulators use) and a helper to populate it from environment
// variables. The .env file is read by loadBotEnv() (see env.go), so you can
// tune behavior without exports.
//
// Typical flow (see main.go):
//   loadBotEnv()
//   cfg := loadConfigFromEnv()
package main

// Config holds all runtime knobs for quoting and backtesting.
type Config struct {
	// Data inputs
	CandlesCSV string // path to OHLCV candles (time,open,high,low,close,volume)
	TicksCSV   string // path to trade ticks (time,price,volume,side)

	// Quoting model
	ModelVariant string  // "finite" (Avellaneda-Stoikov) or "infinite" (GLFT)
	Gamma        float64 // risk aversion γ
	Kappa        float64 // order-book intensity κ (decay of fill rate with depth)
	ArrivalRate  float64 // baseline arrival rate A at the touch
	MinSpreadUSD float64 // clamp floor for the full quoted spread (QUOTE)
	MaxSpreadUSD float64 // clamp ceiling for the full quoted spread (QUOTE)
	VolWindow    int     // rolling log-return window for the volatility estimator

	// Ledger & sizing
	InitialCash  float64 // starting quote balance
	MaxInventory float64 // absolute inventory cap (BASE)
	OrderQty     float64 // per-quote order size (BASE)
	FeeTier      string  // fee tier name; unknown tiers fall back to "default"

	// Candle simulator
	FillAggressiveness float64 // multiplier on candle penetration → fill probability
	MaxSlippagePct     float64 // % max uniform slippage applied to candle fills
	StopLossPct        float64 // % adverse move that force-closes the position; 0 disables
	Seed               int64   // RNG seed; fixed seed ⇒ reproducible fills/slippage

	// Regime filter
	UseRegimeFilter    bool
	ADXPeriod          int
	ADXThreshold       float64
	TrendPositionScale float64 // order size multiplier in a trending regime

	// Tick simulator
	BaseQueueDepth  float64 // assumed queue volume ahead of a new order at mid
	QuoteRefreshSec float64 // seconds of tick time between quote refreshes

	// Ops
	Port              int
	MaxHistorySamples int // cap on retained price history

	// Logging
	LogLevel      string
	LogFile       string // empty ⇒ console only
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	return Config{
		CandlesCSV: getEnv("CANDLES_CSV", ""),
		TicksCSV:   getEnv("TICKS_CSV", ""),

		ModelVariant: getEnv("MODEL_VARIANT", "infinite"),
		Gamma:        getEnvFloat("GAMMA", 0.0001),
		Kappa:        getEnvFloat("KAPPA", 0.05),
		ArrivalRate:  getEnvFloat("ARRIVAL_RATE", 10.0),
		MinSpreadUSD: getEnvFloat("MIN_SPREAD_USD", 10.0),
		MaxSpreadUSD: getEnvFloat("MAX_SPREAD_USD", 500.0),
		VolWindow:    getEnvInt("VOL_WINDOW", 60),

		InitialCash:  getEnvFloat("INITIAL_CASH", 1_000_000.0),
		MaxInventory: getEnvFloat("MAX_INVENTORY", 1.0),
		OrderQty:     getEnvFloat("ORDER_QTY", 0.01),
		FeeTier:      getEnv("FEE_TIER", "default"),

		FillAggressiveness: getEnvFloat("FILL_AGGRESSIVENESS", 2.0),
		MaxSlippagePct:     getEnvFloat("MAX_SLIPPAGE_PCT", 0.05),
		StopLossPct:        getEnvFloat("STOP_LOSS_PCT", 2.0),
		Seed:               getEnvInt64("SEED", 42),

		UseRegimeFilter:    getEnvBool("USE_REGIME_FILTER", true),
		ADXPeriod:          getEnvInt("ADX_PERIOD", 14),
		ADXThreshold:       getEnvFloat("ADX_THRESHOLD", 25.0),
		TrendPositionScale: getEnvFloat("TREND_POSITION_SCALE", 0.5),

		BaseQueueDepth:  getEnvFloat("BASE_QUEUE_DEPTH", 10.0),
		QuoteRefreshSec: getEnvFloat("QUOTE_REFRESH_SEC", 5.0),

		Port:              getEnvInt("PORT", 8080),
		MaxHistorySamples: getEnvInt("MAX_HISTORY_SAMPLES", 5000),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 7),
	}
}

// modelFromConfig wires the configured model variant with its volatility
// estimator. Unknown variants fall back to the infinite-horizon model.
func modelFromConfig(cfg Config) MarketMakingModel {
	mc := ModelConfig{
		Gamma:       cfg.Gamma,
		Kappa:       cfg.Kappa,
		ArrivalRate: cfg.ArrivalRate,
		MinSpread:   cfg.MinSpreadUSD,
		MaxSpread:   cfg.MaxSpreadUSD,
		VolWindow:   cfg.VolWindow,
	}
	if cfg.ModelVariant == "finite" {
		return NewFiniteHorizonModel(mc)
	}
	return NewInfiniteHorizonModel(mc)
}
