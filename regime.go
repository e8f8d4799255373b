// FILE: regime.go
// Package main – ADX-based trend/range regime classifier.
//
// Computes ADX/+DI/−DI from Wilder-smoothed true range and directional
// movement (same smoothing family as RSI). The detector gates quoting:
// it pauses entirely only in very strong trends (ADX > 1.5×threshold) and
// scales position size down in moderate trends.
//
// Fewer than period+1 samples ⇒ all-zero outputs and a ranging regime.

package main

import "math"

// Regime is the coarse market-state classification.
type Regime int

const (
	RegimeRanging Regime = iota
	RegimeTrendingUp
	RegimeTrendingDown
)

// String implements fmt.Stringer for pretty logging.
func (r Regime) String() string {
	switch r {
	case RegimeTrendingUp:
		return "trending_up"
	case RegimeTrendingDown:
		return "trending_down"
	default:
		return "ranging"
	}
}

// RegimeConfig holds detector knobs.
type RegimeConfig struct {
	Period       int     // ADX period (e.g., 14)
	ADXThreshold float64 // trending when ADX ≥ threshold
	TrendScale   float64 // position-size multiplier in a trending regime
	MaxHistory   int     // cap on retained candles; 0 ⇒ 8×Period
}

// RegimeDetector classifies the market from high/low/close history.
type RegimeDetector struct {
	cfg    RegimeConfig
	highs  []float64
	lows   []float64
	closes []float64

	adx     float64
	plusDI  float64
	minusDI float64
	regime  Regime
}

func NewRegimeDetector(cfg RegimeConfig) *RegimeDetector {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.ADXThreshold <= 0 {
		cfg.ADXThreshold = 25.0
	}
	if cfg.TrendScale <= 0 || cfg.TrendScale > 1 {
		cfg.TrendScale = 0.5
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 8 * cfg.Period
	}
	return &RegimeDetector{cfg: cfg, regime: RegimeRanging}
}

// Update appends one candle and reclassifies once enough history exists.
func (d *RegimeDetector) Update(high, low, close float64) {
	d.highs = append(d.highs, high)
	d.lows = append(d.lows, low)
	d.closes = append(d.closes, close)
	if len(d.closes) > d.cfg.MaxHistory {
		cut := len(d.closes) - d.cfg.MaxHistory
		d.highs = d.highs[cut:]
		d.lows = d.lows[cut:]
		d.closes = d.closes[cut:]
	}

	d.adx, d.plusDI, d.minusDI = computeADX(d.highs, d.lows, d.closes, d.cfg.Period)

	switch {
	case d.adx >= d.cfg.ADXThreshold && d.plusDI >= d.minusDI:
		d.regime = RegimeTrendingUp
	case d.adx >= d.cfg.ADXThreshold:
		d.regime = RegimeTrendingDown
	default:
		d.regime = RegimeRanging
	}
}

func (d *RegimeDetector) ADX() float64     { return d.adx }
func (d *RegimeDetector) PlusDI() float64  { return d.plusDI }
func (d *RegimeDetector) MinusDI() float64 { return d.minusDI }
func (d *RegimeDetector) Regime() Regime   { return d.regime }

// PositionScale returns the order-size multiplier for the current regime.
func (d *RegimeDetector) PositionScale() float64 {
	if d.regime == RegimeRanging {
		return 1.0
	}
	return d.cfg.TrendScale
}

// ShouldTrade is false only in a very strong trend.
func (d *RegimeDetector) ShouldTrade() bool {
	return d.adx <= 1.5*d.cfg.ADXThreshold
}

// computeADX returns (ADX, +DI, −DI) over the full history using Wilder
// smoothing. Needs at least period+1 closes; otherwise all zeros.
func computeADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI float64) {
	n := len(closes)
	if n < period+1 {
		return 0, 0, 0
	}

	// true range and directional movement series, one per bar transition
	tr := make([]float64, n-1)
	pdm := make([]float64, n-1)
	mdm := make([]float64, n-1)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i-1] = math.Max(hl, math.Max(hc, lc))

		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			pdm[i-1] = up
		}
		if down > up && down > 0 {
			mdm[i-1] = down
		}
	}

	// seed Wilder sums over the first full period
	var smTR, smPDM, smMDM float64
	for i := 0; i < period; i++ {
		smTR += tr[i]
		smPDM += pdm[i]
		smMDM += mdm[i]
	}

	di := func(sTR, sDM float64) float64 {
		if sTR <= 0 {
			return 0
		}
		return 100.0 * sDM / sTR
	}
	dx := func(p, m float64) float64 {
		if p+m == 0 {
			return 0
		}
		return 100.0 * math.Abs(p-m) / (p + m)
	}

	plusDI = di(smTR, smPDM)
	minusDI = di(smTR, smMDM)
	dxs := []float64{dx(plusDI, minusDI)}

	for i := period; i < len(tr); i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPDM = smPDM - smPDM/float64(period) + pdm[i]
		smMDM = smMDM - smMDM/float64(period) + mdm[i]
		plusDI = di(smTR, smPDM)
		minusDI = di(smTR, smMDM)
		dxs = append(dxs, dx(plusDI, minusDI))
	}

	// ADX: average the first `period` DX values, then Wilder-smooth the rest.
	if len(dxs) < period {
		var sum float64
		for _, v := range dxs {
			sum += v
		}
		return sum / float64(len(dxs)), plusDI, minusDI
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += dxs[i]
	}
	adx = sum / float64(period)
	for i := period; i < len(dxs); i++ {
		adx = (adx*float64(period-1) + dxs[i]) / float64(period)
	}
	return adx, plusDI, minusDI
}
