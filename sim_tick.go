// FILE: sim_tick.go
// Package main – Tick-level backtest: queue-position fills from trade prints.
//
// Each tracked quote carries an estimate of the depth resting ahead of it,
// seeded from distance to mid via the same exponential decay the quoting
// model assumes for fill intensity. Prints that trade through the limit
// price consume that depth; once it is exhausted the next print fills us at
// our own limit price. No randomness: tick replay is fully deterministic.

package main

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Tick is one trade print.
type Tick struct {
	Time   time.Time
	Price  float64
	Volume float64
	Side   string // aggressor side when the feed provides it; informational
}

// TickSimConfig collects the knobs the tick simulator reads.
type TickSimConfig struct {
	OrderQty          float64
	BaseQueueDepth    float64 // depth assumed ahead of a quote placed at mid
	QuoteRefreshSec   float64 // re-quote cadence in tick time, seconds
	MaxHistorySamples int
}

// TickSimulator replays trade prints against a quoting model and ledger.
type TickSimulator struct {
	cfg    TickSimConfig
	model  MarketMakingModel
	ledger *OrderManager
	kappa  KappaProvider

	queueAhead  map[string]float64
	prices      []float64
	lastRefresh time.Time
	refreshes   int
}

// NewTickSimulator wires a tick-level simulator.
func NewTickSimulator(cfg TickSimConfig, model MarketMakingModel, ledger *OrderManager, kappa KappaProvider) *TickSimulator {
	if cfg.MaxHistorySamples <= 0 {
		cfg.MaxHistorySamples = 5000
	}
	if cfg.QuoteRefreshSec <= 0 {
		cfg.QuoteRefreshSec = 5
	}
	return &TickSimulator{
		cfg:        cfg,
		model:      model,
		ledger:     ledger,
		kappa:      kappa,
		queueAhead: make(map[string]float64),
	}
}

// Run replays the tick series. Quotes refresh on a wall-clock cadence
// measured in tick time; equity is sampled on every print.
func (s *TickSimulator) Run(ticks []Tick) *BacktestResult {
	res := &BacktestResult{}
	if len(ticks) == 0 {
		return res
	}

	for i, t := range ticks {
		s.ledger.MarkTime(t.Time)

		s.checkFills(t)

		s.prices = append(s.prices, t.Price)
		if len(s.prices) > s.cfg.MaxHistorySamples {
			s.prices = s.prices[len(s.prices)-s.cfg.MaxHistorySamples:]
		}

		if i == 0 || t.Time.Sub(s.lastRefresh) >= time.Duration(s.cfg.QuoteRefreshSec*float64(time.Second)) {
			s.refreshQuotes(t)
			s.lastRefresh = t.Time
		}

		eq := s.ledger.Equity(t.Price)
		res.Equity = append(res.Equity, EquityPoint{Time: t.Time, Equity: eq, Inventory: s.ledger.Inventory()})
		mtxEquity.Set(eq)
		mtxInventory.Set(s.ledger.Inventory())
	}

	last := ticks[len(ticks)-1].Price
	res.Trades = s.ledger.Fills()
	res.Summary = Summary{
		FinalEquity:    s.ledger.Equity(last),
		FinalCash:      s.ledger.Cash(),
		FinalInventory: s.ledger.Inventory(),
		RealizedPnL:    s.ledger.RealizedPnL(),
		UnrealizedPnL:  s.ledger.UnrealizedPnL(last),
		TotalFees:      s.ledger.TotalFees(),
		FillCount:      len(res.Trades),
		QuoteRefreshes: s.refreshes,
	}
	return res
}

// checkFills walks both sides' resting orders against one print. A print at
// or through the limit price burns the queue ahead of the order; once the
// queue reaches ≤ 0 (or the order was never tracked) the order fills in
// full, always at its own limit price.
func (s *TickSimulator) checkFills(t Tick) {
	for _, side := range []OrderSide{SideBuy, SideSell} {
		for _, o := range s.ledger.OpenOrdersBySide(side) {
			if side == SideBuy {
				if t.Price > o.Price {
					continue
				}
			} else {
				if t.Price < o.Price {
					continue
				}
			}

			if ahead, ok := s.queueAhead[o.ID]; ok && ahead > 0 {
				s.queueAhead[o.ID] = ahead - t.Volume
				if s.queueAhead[o.ID] > 0 {
					continue
				}
			}

			if s.ledger.FillOrder(o.ID, o.Remaining(), o.Price) {
				delete(s.queueAhead, o.ID)
			}
		}
	}
}

// refreshQuotes cancels the tracked pair and re-quotes around the latest
// print, seeding each new order's queue estimate from its distance to mid.
func (s *TickSimulator) refreshQuotes(t Tick) {
	if tk, ok := s.kappa.(TimedKappaProvider); ok {
		tk.Seek(t.Time)
	}
	k, a := s.kappa.GetKappa()
	s.model.SetIntensity(k, a)

	mid := t.Price
	sigmaPct := s.model.CalculateVolatility(s.prices)
	bid, ask := s.model.Quotes(mid, s.ledger.Inventory(), sigmaPct, 1.0)

	for id := range s.queueAhead {
		delete(s.queueAhead, id)
	}
	bidOrder, askOrder := s.ledger.UpdateQuotes(bid, ask, s.cfg.OrderQty)
	if bidOrder != nil {
		s.queueAhead[bidOrder.ID] = s.seedDepth(bidOrder.Price, mid, k)
	}
	if askOrder != nil {
		s.queueAhead[askOrder.ID] = s.seedDepth(askOrder.Price, mid, k)
	}
	s.refreshes++
	mtxQuoteRefreshes.Inc()
	logrus.Debugf("[requote] mid=%.2f bid=%.2f ask=%.2f sigma=%.5f", mid, bid, ask, sigmaPct)
}

// seedDepth estimates resting volume ahead of a fresh quote: deep near mid,
// decaying exponentially with dollar distance.
func (s *TickSimulator) seedDepth(price, mid, kappa float64) float64 {
	d := math.Abs(price - mid)
	return s.cfg.BaseQueueDepth * math.Exp(-kappa*d)
}
