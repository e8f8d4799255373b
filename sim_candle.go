// FILE: sim_candle.go
// Package main – Candle-level backtest: probabilistic fills against OHLC bars.
//
// Per-candle sequence (fills are evaluated against the bar BEFORE the
// quoting state advances to its close):
//   1) check resting orders for fills inside the bar's range
//   2) append close to price history, mid = close
//   3) stop-loss check against the weighted-average entry
//   4) regime gate (optional): skip trend candles, scale size otherwise
//   5) refresh kappa, volatility, and the quote pair

package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleSimConfig collects the knobs the candle simulator reads.
type CandleSimConfig struct {
	OrderQty           float64
	FillAggressiveness float64 // penetration multiplier in the fill probability
	MaxSlippagePct     float64 // percent of price, upper bound on random slippage
	StopLossPct        float64 // percent adverse move that force-flattens
	MaxHistorySamples  int
	Seed               int64
}

// CandleSimulator replays OHLCV bars against a quoting model and ledger.
type CandleSimulator struct {
	cfg    CandleSimConfig
	model  MarketMakingModel
	ledger *OrderManager
	kappa  KappaProvider
	regime *RegimeDetector // nil disables the gate

	rng    *rand.Rand
	prices []float64

	skippedCandles int
	stopLossEvents int
}

// NewCandleSimulator wires a simulator. The RNG is owned and seeded here so
// identical inputs replay identically. regime may be nil.
func NewCandleSimulator(cfg CandleSimConfig, model MarketMakingModel, ledger *OrderManager, kappa KappaProvider, regime *RegimeDetector) *CandleSimulator {
	if cfg.MaxHistorySamples <= 0 {
		cfg.MaxHistorySamples = 5000
	}
	return &CandleSimulator{
		cfg:    cfg,
		model:  model,
		ledger: ledger,
		kappa:  kappa,
		regime: regime,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run replays the candle series and returns the result curve and trade log.
// Time remaining for the finite-horizon model decays linearly from 1 at the
// first bar toward 0 at the last.
func (s *CandleSimulator) Run(candles []Candle) *BacktestResult {
	res := &BacktestResult{}
	n := len(candles)
	if n == 0 {
		return res
	}

	for i, c := range candles {
		s.ledger.MarkTime(c.Time)

		s.checkFills(c)

		s.prices = append(s.prices, c.Close)
		if len(s.prices) > s.cfg.MaxHistorySamples {
			s.prices = s.prices[len(s.prices)-s.cfg.MaxHistorySamples:]
		}
		mid := c.Close

		s.checkStopLoss(c)

		scale := 1.0
		if s.regime != nil {
			s.regime.Update(c.High, c.Low, c.Close)
			if !s.regime.ShouldTrade() {
				s.ledger.CancelAll()
				s.skippedCandles++
				mtxSkippedCandles.Inc()
				s.sample(res, c.Time, mid)
				continue
			}
			scale = s.regime.PositionScale()
		}

		if tk, ok := s.kappa.(TimedKappaProvider); ok {
			tk.Seek(c.Time)
		}
		k, a := s.kappa.GetKappa()
		s.model.SetIntensity(k, a)

		sigmaPct := s.model.CalculateVolatility(s.prices)
		timeRemaining := 1.0 - float64(i)/float64(n)
		bid, ask := s.model.Quotes(mid, s.ledger.Inventory(), sigmaPct, timeRemaining)
		s.ledger.UpdateQuotes(bid, ask, s.cfg.OrderQty*scale)

		s.sample(res, c.Time, mid)
	}

	s.summarize(res, candles[n-1].Close)
	return res
}

// checkFills tests the tracked quote pair against one bar. At most one side
// fills per candle; the side the bar's open sits closer to goes first.
func (s *CandleSimulator) checkFills(c Candle) {
	bidFirst := c.Open-c.Low < c.High-c.Open

	filled := false
	try := func(side OrderSide) {
		if filled {
			return
		}
		if s.tryFillSide(side, c) {
			filled = true
		}
	}

	if bidFirst {
		try(SideBuy)
		try(SideSell)
	} else {
		try(SideSell)
		try(SideBuy)
	}
}

// tryFillSide evaluates one side's resting orders against the bar in book
// priority. The bar must trade strictly through a limit price; the fill
// probability grows with penetration depth scaled by aggressiveness. Orders
// are tried until one fills — a failed probability draw on the best order
// still gives deeper orders their chance.
func (s *CandleSimulator) tryFillSide(side OrderSide, c Candle) bool {
	for _, o := range s.ledger.OpenOrdersBySide(side) {
		var penetration float64
		if side == SideBuy {
			if c.Low >= o.Price {
				// sorted best-first: deeper bids can't be traded through either
				return false
			}
			penetration = (o.Price - c.Low) / o.Price
		} else {
			if c.High <= o.Price {
				return false
			}
			penetration = (c.High - o.Price) / o.Price
		}

		p := math.Min(1.0, penetration*s.cfg.FillAggressiveness)
		if s.rng.Float64() >= p {
			continue
		}

		// slippage improves the fill relative to the limit price
		slip := s.rng.Float64() * (s.cfg.MaxSlippagePct / 100.0) * o.Price
		price := o.Price - slip
		if side == SideSell {
			price = o.Price + slip
		}
		if s.ledger.FillOrder(o.ID, o.Remaining(), price) {
			return true
		}
	}
	return false
}

// checkStopLoss flattens the position when the close has moved against the
// average entry by more than the configured percentage. The close-out price
// carries adverse slippage: a long sells below the close, a short covers
// above it.
func (s *CandleSimulator) checkStopLoss(c Candle) {
	if s.cfg.StopLossPct <= 0 {
		return
	}
	inv := s.ledger.Inventory()
	avg := s.ledger.AvgEntryPrice()
	if inv == 0 || avg <= 0 {
		return
	}

	move := (c.Close - avg) / avg
	if inv < 0 {
		move = -move
	}
	if move >= -s.cfg.StopLossPct/100.0 {
		return
	}

	s.ledger.CancelAll()
	slip := s.rng.Float64() * (s.cfg.MaxSlippagePct / 100.0) * c.Close
	price := c.Close - slip
	if inv < 0 {
		price = c.Close + slip
	}
	s.ledger.ForceClose(price)
	s.stopLossEvents++
	mtxStopLoss.Inc()
	logrus.Warnf("[stop-loss] flattened %.6f at %.2f (avg entry %.2f)", inv, price, avg)
}

func (s *CandleSimulator) sample(res *BacktestResult, ts time.Time, mark float64) {
	eq := s.ledger.Equity(mark)
	res.Equity = append(res.Equity, EquityPoint{Time: ts, Equity: eq, Inventory: s.ledger.Inventory()})
	mtxEquity.Set(eq)
	mtxInventory.Set(s.ledger.Inventory())
}

func (s *CandleSimulator) summarize(res *BacktestResult, lastMark float64) {
	res.Trades = s.ledger.Fills()
	res.Summary = Summary{
		FinalEquity:    s.ledger.Equity(lastMark),
		FinalCash:      s.ledger.Cash(),
		FinalInventory: s.ledger.Inventory(),
		RealizedPnL:    s.ledger.RealizedPnL(),
		UnrealizedPnL:  s.ledger.UnrealizedPnL(lastMark),
		TotalFees:      s.ledger.TotalFees(),
		FillCount:      len(res.Trades),
		SkippedCandles: s.skippedCandles,
		StopLossEvents: s.stopLossEvents,
	}
}
