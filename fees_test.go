// FILE: fees_test.go
// Package main – Fee tier resolution and cost math tests.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeTierLookup(t *testing.T) {
	f := NewFeeModel("pro")
	assert.Equal(t, "pro", f.Tier)
	assert.Equal(t, 0.0010, f.MakerRate())
	assert.Equal(t, 0.0020, f.TakerRate())

	// case-insensitive with surrounding whitespace
	assert.Equal(t, "market_maker", NewFeeModel("  Market_Maker ").Tier)
}

func TestFeeTierUnknownFallsBack(t *testing.T) {
	f := NewFeeModel("vip9000")
	assert.Equal(t, "default", f.Tier)
	assert.Equal(t, 0.0040, f.MakerRate())
	assert.Equal(t, 0.0060, f.TakerRate())

	assert.Equal(t, "default", NewFeeModel("").Tier)
}

func TestFeeAmounts(t *testing.T) {
	f := NewFeeModel("plus") // 25/40 bps
	assert.InDelta(t, 25.0, f.MakerFee(100_000), 1e-9)
	assert.InDelta(t, 40.0, f.TakerFee(100_000), 1e-9)
}

func TestRoundTripCost(t *testing.T) {
	f := NewFeeModel("default")
	// maker entry + maker exit
	assert.InDelta(t, 0.0080*10_000, f.RoundTripCost(10_000, true), 1e-9)
	// maker entry + taker exit
	assert.InDelta(t, 0.0100*10_000, f.RoundTripCost(10_000, false), 1e-9)
}

func TestMarketMakerTierEntryIsFree(t *testing.T) {
	f := NewFeeModel("market_maker")
	assert.Equal(t, 0.0, f.MakerFee(1_000_000))
	assert.InDelta(t, 0.0005*1_000_000, f.RoundTripCost(1_000_000, false), 1e-9)
}
