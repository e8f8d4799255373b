// FILE: kappa_test.go
// Package main – κ/arrival provider tests.

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstantKappa(t *testing.T) {
	k, a := ConstantKappa{Kappa: 0.05, Arrival: 10}.GetKappa()
	assert.Equal(t, 0.05, k)
	assert.Equal(t, 10.0, a)
}

func TestHistoricalKappaLookup(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHistoricalKappa([]KappaSample{
		// deliberately unsorted; the constructor sorts
		{Time: t0.Add(2 * time.Hour), Kappa: 0.08, Arrival: 12},
		{Time: t0, Kappa: 0.05, Arrival: 10},
		{Time: t0.Add(time.Hour), Kappa: 0.06, Arrival: 11},
	}, ConstantKappa{Kappa: 0.01, Arrival: 1})

	// exact hit
	h.Seek(t0.Add(time.Hour))
	k, a := h.GetKappa()
	assert.Equal(t, 0.06, k)
	assert.Equal(t, 11.0, a)

	// between samples: nearest at-or-before wins
	h.Seek(t0.Add(90 * time.Minute))
	k, _ = h.GetKappa()
	assert.Equal(t, 0.06, k)

	// past the last sample
	h.Seek(t0.Add(48 * time.Hour))
	k, _ = h.GetKappa()
	assert.Equal(t, 0.08, k)
}

func TestHistoricalKappaFallback(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fb := ConstantKappa{Kappa: 0.01, Arrival: 1}

	h := NewHistoricalKappa([]KappaSample{{Time: t0, Kappa: 0.05, Arrival: 10}}, fb)
	h.Seek(t0.Add(-time.Minute)) // before the first sample
	k, a := h.GetKappa()
	assert.Equal(t, 0.01, k)
	assert.Equal(t, 1.0, a)

	empty := NewHistoricalKappa(nil, fb)
	k, _ = empty.GetKappa()
	assert.Equal(t, 0.01, k)
}

type stubCalibrator struct {
	k, a float64
	ok   bool
}

func (s stubCalibrator) Estimate() (float64, float64, bool) { return s.k, s.a, s.ok }

func TestLiveKappa(t *testing.T) {
	fb := ConstantKappa{Kappa: 0.01, Arrival: 1}

	warm := LiveKappa{Source: stubCalibrator{k: 0.07, a: 14, ok: true}, Fallback: fb}
	k, a := warm.GetKappa()
	assert.Equal(t, 0.07, k)
	assert.Equal(t, 14.0, a)

	cold := LiveKappa{Source: stubCalibrator{ok: false}, Fallback: fb}
	k, _ = cold.GetKappa()
	assert.Equal(t, 0.01, k)

	nilSource := LiveKappa{Fallback: fb}
	k, _ = nilSource.GetKappa()
	assert.Equal(t, 0.01, k)
}
