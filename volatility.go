// FILE: volatility.go
// Package main – Rolling log-return volatility estimator.
//
// σ is computed as the sample standard deviation of log returns over a
// configurable window and exposed in percentage, dollar, and tick units.
// Degraded inputs resolve to documented defaults, never errors:
//   • fewer than 2 return samples → a fixed default (2%)
//   • fewer samples than the window → use whatever is available
//   • perfectly flat series → 0

package main

import "math"

// defaultSigmaPct is returned when the price history is too short to
// estimate anything.
const defaultSigmaPct = 0.02

// VolatilityEstimator computes rolling log-return volatility.
type VolatilityEstimator struct {
	Window int
}

func NewVolatilityEstimator(window int) *VolatilityEstimator {
	if window < 2 {
		window = 2
	}
	return &VolatilityEstimator{Window: window}
}

// SigmaPct returns volatility as a fraction of price (0.01 = 1%).
func (v *VolatilityEstimator) SigmaPct(prices []float64) float64 {
	rets := logReturns(prices)
	if len(rets) < 2 {
		return defaultSigmaPct
	}
	if len(rets) > v.Window {
		rets = rets[len(rets)-v.Window:]
	}
	return stddev(rets)
}

// SigmaDollar converts σ into quote-currency units at the given mid.
func (v *VolatilityEstimator) SigmaDollar(prices []float64, mid float64) float64 {
	return v.SigmaPct(prices) * mid
}

// SigmaTicks converts σ into tick units; tickSize ≤ 0 yields 0.
func (v *VolatilityEstimator) SigmaTicks(prices []float64, mid, tickSize float64) float64 {
	if tickSize <= 0 {
		return 0
	}
	return v.SigmaDollar(prices, mid) / tickSize
}

// logReturns skips non-positive prices so a bad sample can't poison the log.
func logReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i] > 0 && prices[i-1] > 0 {
			out = append(out, math.Log(prices[i]/prices[i-1]))
		}
	}
	return out
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(xs []float64) float64 {
	n := len(xs)
	if n <= 1 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	var v float64
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return math.Sqrt(v / float64(n-1))
}
