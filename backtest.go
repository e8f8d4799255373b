// FILE: backtest.go
// Package main – CSV loaders, result types, and backtest runners.
//
// What’s here:
//   • loadCandlesCSV(path) -> []Candle : reads time,open,high,low,close,volume
//   • loadTicksCSV(path)   -> []Tick   : reads time,price,volume[,side]
//   • BacktestResult / Summary        : equity curve, trade log, scalars
//   • runCandleBacktest / runTickBacktest : wire model+ledger+kappa and run
//
// Notes:
//   • Time columns accept RFC3339 or UNIX seconds.
//   • Unknown columns are ignored; headers are case-insensitive.

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ---- result types ----

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Time      time.Time
	Equity    float64
	Inventory float64
}

// Summary holds the scalar outcomes of one run.
type Summary struct {
	FinalEquity    float64
	FinalCash      float64
	FinalInventory float64
	RealizedPnL    float64
	UnrealizedPnL  float64
	TotalFees      float64
	FillCount      int
	SkippedCandles int
	StopLossEvents int
	QuoteRefreshes int
}

// BacktestResult is what a simulator run produces.
type BacktestResult struct {
	Equity  []EquityPoint
	Trades  []FillRecord
	Summary Summary
}

// ---- CSV loading ----

// loadCandlesCSV reads a generic candle CSV with headers:
// time|timestamp, open, high, low, close, volume
func loadCandlesCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open candles csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Candle
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read candles csv")
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp")
		op := first(row, "open")
		hp := first(row, "high")
		lp := first(row, "low")
		cp := first(row, "close")
		vp := first(row, "volume", "vol")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		o, _ := strconv.ParseFloat(op, 64)
		h, _ := strconv.ParseFloat(hp, 64)
		l, _ := strconv.ParseFloat(lp, 64)
		c, _ := strconv.ParseFloat(cp, 64)
		v, _ := strconv.ParseFloat(vp, 64)
		out = append(out, Candle{Time: tt, Open: o, High: h, Low: l, Close: c, Volume: v})
		rowIdx++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// loadTicksCSV reads a trade-print CSV with headers:
// time|timestamp, price, volume|vol|size[, side]
func loadTicksCSV(path string) ([]Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open ticks csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Tick
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read ticks csv")
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp")
		pp := first(row, "price")
		vp := first(row, "volume", "vol", "size")
		if ts == "" || pp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		p, _ := strconv.ParseFloat(pp, 64)
		v, _ := strconv.ParseFloat(vp, 64)
		out = append(out, Tick{Time: tt, Price: p, Volume: v, Side: first(row, "side")})
		rowIdx++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// parseTimeFlexible supports RFC3339 or UNIX seconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

// ---- runners ----

// newLedger builds the ledger a run starts from.
func newLedger(cfg Config) *OrderManager {
	fees := NewFeeModel(cfg.FeeTier)
	return NewOrderManager(cfg.InitialCash, cfg.MaxInventory, fees.MakerRate())
}

// runCandleBacktest loads the candle file and replays it.
func runCandleBacktest(cfg Config) (*BacktestResult, error) {
	candles, err := loadCandlesCSV(cfg.CandlesCSV)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no candles in %s", cfg.CandlesCSV)
	}

	model := modelFromConfig(cfg)
	var regime *RegimeDetector
	if cfg.UseRegimeFilter {
		regime = NewRegimeDetector(RegimeConfig{
			Period:       cfg.ADXPeriod,
			ADXThreshold: cfg.ADXThreshold,
			TrendScale:   cfg.TrendPositionScale,
		})
	}
	sim := NewCandleSimulator(CandleSimConfig{
		OrderQty:           cfg.OrderQty,
		FillAggressiveness: cfg.FillAggressiveness,
		MaxSlippagePct:     cfg.MaxSlippagePct,
		StopLossPct:        cfg.StopLossPct,
		MaxHistorySamples:  cfg.MaxHistorySamples,
		Seed:               cfg.Seed,
	}, model, newLedger(cfg), ConstantKappa{Kappa: cfg.Kappa, Arrival: cfg.ArrivalRate}, regime)

	logrus.Infof("[backtest] candle run: %d candles, model=%s", len(candles), model.Name())
	res := sim.Run(candles)
	logSummary("candle", res.Summary)
	return res, nil
}

// runTickBacktest loads the tick file and replays it.
func runTickBacktest(cfg Config) (*BacktestResult, error) {
	ticks, err := loadTicksCSV(cfg.TicksCSV)
	if err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, errors.Errorf("no ticks in %s", cfg.TicksCSV)
	}

	model := modelFromConfig(cfg)
	sim := NewTickSimulator(TickSimConfig{
		OrderQty:          cfg.OrderQty,
		BaseQueueDepth:    cfg.BaseQueueDepth,
		QuoteRefreshSec:   cfg.QuoteRefreshSec,
		MaxHistorySamples: cfg.MaxHistorySamples,
	}, model, newLedger(cfg), ConstantKappa{Kappa: cfg.Kappa, Arrival: cfg.ArrivalRate})

	logrus.Infof("[backtest] tick run: %d ticks, model=%s", len(ticks), model.Name())
	res := sim.Run(ticks)
	logSummary("tick", res.Summary)
	return res, nil
}

func logSummary(kind string, s Summary) {
	logrus.Infof("[backtest] %s complete: equity=%.2f cash=%.2f inv=%.6f realized=%.2f unrealized=%.2f fees=%.2f fills=%d skipped=%d stops=%d requotes=%d",
		kind, s.FinalEquity, s.FinalCash, s.FinalInventory, s.RealizedPnL, s.UnrealizedPnL,
		s.TotalFees, s.FillCount, s.SkippedCandles, s.StopLossEvents, s.QuoteRefreshes)
}
