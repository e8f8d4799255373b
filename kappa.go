// FILE: kappa.go
// Package main – Order-book intensity (κ) and arrival-rate (A) providers.
//
// The simulators and the infinite-horizon model consume a single contract:
// GetKappa() → (κ, A). Three providers implement it:
//   • ConstantKappa   – fixed values from config
//   • HistoricalKappa – timestamp-keyed lookup (nearest at-or-before sample)
//   • LiveKappa       – wraps an external calibrator; the calibration math
//                       itself lives outside this engine
//
// HistoricalKappa is time-aware: simulators that know the replay clock call
// Seek(ts) before GetKappa() (see TimedKappaProvider).

package main

import (
	"sort"
	"time"
)

// KappaProvider supplies the order-book intensity parameter κ and the
// baseline arrival rate A.
type KappaProvider interface {
	GetKappa() (kappa, arrival float64)
}

// TimedKappaProvider is the optional upgrade for providers whose estimate
// depends on the replay clock.
type TimedKappaProvider interface {
	KappaProvider
	Seek(ts time.Time)
}

// ---- Constant ----

// ConstantKappa returns fixed (κ, A) values.
type ConstantKappa struct {
	Kappa   float64
	Arrival float64
}

func (c ConstantKappa) GetKappa() (float64, float64) { return c.Kappa, c.Arrival }

// ---- Historical lookup ----

// KappaSample is one calibrated (κ, A) observation.
type KappaSample struct {
	Time    time.Time
	Kappa   float64
	Arrival float64
}

// HistoricalKappa serves the nearest sample at or before the current cursor.
// Before the first sample (or with no samples) it falls back to a constant.
type HistoricalKappa struct {
	samples  []KappaSample
	fallback ConstantKappa
	cursor   time.Time
}

// NewHistoricalKappa sorts the samples by time once at construction.
func NewHistoricalKappa(samples []KappaSample, fallback ConstantKappa) *HistoricalKappa {
	out := make([]KappaSample, len(samples))
	copy(out, samples)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return &HistoricalKappa{samples: out, fallback: fallback}
}

// Seek moves the lookup cursor to the replay clock.
func (h *HistoricalKappa) Seek(ts time.Time) { h.cursor = ts }

func (h *HistoricalKappa) GetKappa() (float64, float64) {
	if len(h.samples) == 0 {
		return h.fallback.GetKappa()
	}
	// first sample strictly after the cursor; we want the one before it
	idx := sort.Search(len(h.samples), func(i int) bool {
		return h.samples[i].Time.After(h.cursor)
	})
	if idx == 0 {
		return h.fallback.GetKappa()
	}
	s := h.samples[idx-1]
	return s.Kappa, s.Arrival
}

// ---- Live calibration ----

// KappaCalibrator is the external collaborator that estimates (κ, A) from a
// live trade feed. ok=false means no estimate is available yet.
type KappaCalibrator interface {
	Estimate() (kappa, arrival float64, ok bool)
}

// LiveKappa serves calibrator estimates, falling back to constants until the
// calibrator warms up.
type LiveKappa struct {
	Source   KappaCalibrator
	Fallback ConstantKappa
}

func (l LiveKappa) GetKappa() (float64, float64) {
	if l.Source != nil {
		if k, a, ok := l.Source.Estimate(); ok {
			return k, a
		}
	}
	return l.Fallback.GetKappa()
}
