// FILE: fees.go
// Package main – Fee tiers and round-trip cost math.
//
// Maps a venue fee tier to maker/taker rates and computes trade costs.
// Rates are decimal fractions (0.001 = 10 bps). The tier table is immutable;
// an unknown tier name falls back to "default" rather than erroring.

package main

import "strings"

// FeeModel exposes maker/taker rates for one fee tier.
type FeeModel struct {
	Tier  string
	maker float64
	taker float64
}

// feeTiers is the built-in tier table. Entry fees in a quoting strategy are
// always maker; exits may cross the spread and pay taker.
var feeTiers = map[string]struct{ maker, taker float64 }{
	"default":      {maker: 0.0040, taker: 0.0060},
	"plus":         {maker: 0.0025, taker: 0.0040},
	"pro":          {maker: 0.0010, taker: 0.0020},
	"market_maker": {maker: 0.0000, taker: 0.0005},
}

// NewFeeModel resolves a tier name (case-insensitive). Unknown tiers resolve
// to "default".
func NewFeeModel(tier string) FeeModel {
	key := strings.ToLower(strings.TrimSpace(tier))
	rates, ok := feeTiers[key]
	if !ok {
		key = "default"
		rates = feeTiers[key]
	}
	return FeeModel{Tier: key, maker: rates.maker, taker: rates.taker}
}

func (f FeeModel) MakerRate() float64 { return f.maker }
func (f FeeModel) TakerRate() float64 { return f.taker }

// MakerFee returns the maker fee on a notional amount.
func (f FeeModel) MakerFee(notional float64) float64 { return notional * f.maker }

// TakerFee returns the taker fee on a notional amount.
func (f FeeModel) TakerFee(notional float64) float64 { return notional * f.taker }

// RoundTripCost sums entry and exit fees on a notional. Entry is always
// maker; the exit leg is maker when makerBoth, else taker.
func (f FeeModel) RoundTripCost(notional float64, makerBoth bool) float64 {
	cost := f.MakerFee(notional)
	if makerBoth {
		return cost + f.MakerFee(notional)
	}
	return cost + f.TakerFee(notional)
}
