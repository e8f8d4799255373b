// FILE: regime_test.go
// Package main – ADX regime classifier tests.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedCandles(d *RegimeDetector, bars [][3]float64) {
	for _, b := range bars {
		d.Update(b[0], b[1], b[2])
	}
}

// trendBars builds n bars stepping the price by drift per bar.
func trendBars(n int, start, drift float64) [][3]float64 {
	out := make([][3]float64, 0, n)
	p := start
	for i := 0; i < n; i++ {
		out = append(out, [3]float64{p + 10, p - 10, p})
		p += drift
	}
	return out
}

func TestRegimeWarmupIsZeroAndRanging(t *testing.T) {
	d := NewRegimeDetector(RegimeConfig{Period: 14})

	feedCandles(d, trendBars(14, 50000, 100)) // period+1 bars needed; 14 < 15
	assert.Equal(t, 0.0, d.ADX())
	assert.Equal(t, 0.0, d.PlusDI())
	assert.Equal(t, 0.0, d.MinusDI())
	assert.Equal(t, RegimeRanging, d.Regime())
	assert.True(t, d.ShouldTrade())
	assert.Equal(t, 1.0, d.PositionScale())
}

func TestRegimeUptrend(t *testing.T) {
	d := NewRegimeDetector(RegimeConfig{Period: 14, ADXThreshold: 25, TrendScale: 0.5})

	feedCandles(d, trendBars(60, 50000, 100))
	assert.Equal(t, RegimeTrendingUp, d.Regime())
	assert.Greater(t, d.ADX(), 25.0)
	assert.Greater(t, d.PlusDI(), d.MinusDI())
	assert.Equal(t, 0.5, d.PositionScale())
	assert.False(t, d.ShouldTrade(), "a clean monotone trend pushes ADX past 1.5×threshold")
}

func TestRegimeDowntrend(t *testing.T) {
	d := NewRegimeDetector(RegimeConfig{Period: 14, ADXThreshold: 25, TrendScale: 0.5})

	feedCandles(d, trendBars(60, 80000, -100))
	assert.Equal(t, RegimeTrendingDown, d.Regime())
	assert.Greater(t, d.MinusDI(), d.PlusDI())
	assert.Equal(t, 0.5, d.PositionScale())
}

func TestRegimeFlatIsRanging(t *testing.T) {
	d := NewRegimeDetector(RegimeConfig{Period: 14, ADXThreshold: 25})

	feedCandles(d, trendBars(60, 50000, 0))
	assert.Equal(t, RegimeRanging, d.Regime())
	assert.True(t, d.ShouldTrade())
	assert.Equal(t, 1.0, d.PositionScale())
}

func TestRegimeStrings(t *testing.T) {
	assert.Equal(t, "ranging", RegimeRanging.String())
	assert.Equal(t, "trending_up", RegimeTrendingUp.String())
	assert.Equal(t, "trending_down", RegimeTrendingDown.String())
}

func TestComputeADXAlternatingBars(t *testing.T) {
	// alternating up/down closes with equal magnitude: DX stays low, the
	// classifier must not call it a trend
	d := NewRegimeDetector(RegimeConfig{Period: 14, ADXThreshold: 25})
	p := 50000.0
	for i := 0; i < 80; i++ {
		if i%2 == 0 {
			p += 50
		} else {
			p -= 50
		}
		d.Update(p+20, p-20, p)
	}
	assert.Less(t, d.ADX(), 25.0)
	assert.Equal(t, RegimeRanging, d.Regime())
}
