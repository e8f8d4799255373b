// FILE: model.go
// Package main – Closed-form market-making quote models.
//
// Two variants behind one interface:
//   • FiniteHorizonModel  – Avellaneda-Stoikov with a terminal time; the
//     inventory penalty and spread both scale with remaining time.
//   • InfiniteHorizonModel – GLFT stationary quotes; time_remaining is
//     accepted for interface parity but ignored.
//
// Both convert percentage volatility to dollar terms (σ$ = σ% × mid),
// clamp the full spread into [MinSpread, MaxSpread] dollars, and degrade
// gracefully on non-positive γ/κ (the affected term evaluates to 0 instead
// of producing NaN/Inf).

package main

import "math"

// ModelConfig carries the parameters shared by both model variants.
type ModelConfig struct {
	Gamma       float64 // risk aversion γ
	Kappa       float64 // book intensity κ
	ArrivalRate float64 // arrival rate A (infinite-horizon only)
	MinSpread   float64 // dollar floor for the full spread
	MaxSpread   float64 // dollar ceiling for the full spread
	VolWindow   int
}

// QuoteBreakdown is the per-refresh diagnostic snapshot.
type QuoteBreakdown struct {
	Mid              float64
	SigmaPct         float64
	SigmaDollar      float64
	TimeRemaining    float64
	ReservationPrice float64
	InventorySkew    float64 // per-unit skew η (infinite) or q·γ·σ²·t shift (finite)
	RawSpread        float64 // before clamping
	Spread           float64 // after clamping
	Bid              float64
	Ask              float64
}

// MarketMakingModel is the contract the simulators drive.
type MarketMakingModel interface {
	Name() string
	ReservationPrice(mid, inventory, sigmaPct, timeRemaining float64) float64
	OptimalSpread(mid, inventory, sigmaPct, timeRemaining float64) float64
	Quotes(mid, inventory, sigmaPct, timeRemaining float64) (bid, ask float64)
	Breakdown(mid, inventory, sigmaPct, timeRemaining float64) QuoteBreakdown
	CalculateVolatility(prices []float64) float64
	SetIntensity(kappa, arrival float64)
}

// clampSpread bounds the full spread into [MinSpread, MaxSpread].
func (c ModelConfig) clampSpread(spread float64) float64 {
	if spread < c.MinSpread {
		return c.MinSpread
	}
	if c.MaxSpread > 0 && spread > c.MaxSpread {
		return c.MaxSpread
	}
	return spread
}

// ---- Finite horizon (Avellaneda-Stoikov) ----

// FiniteHorizonModel quotes around a time-decaying reservation price:
//   r = mid − q·γ·σ$²·t
//   δ = γ·σ$²·t + (2/γ)·ln(1 + γ/κ)
type FiniteHorizonModel struct {
	cfg     ModelConfig
	vol     *VolatilityEstimator
	kappa   float64
	arrival float64
}

func NewFiniteHorizonModel(cfg ModelConfig) *FiniteHorizonModel {
	return &FiniteHorizonModel{
		cfg:     cfg,
		vol:     NewVolatilityEstimator(cfg.VolWindow),
		kappa:   cfg.Kappa,
		arrival: cfg.ArrivalRate,
	}
}

func (m *FiniteHorizonModel) Name() string { return "finite_horizon" }

func (m *FiniteHorizonModel) SetIntensity(kappa, arrival float64) {
	m.kappa = kappa
	m.arrival = arrival
}

func (m *FiniteHorizonModel) CalculateVolatility(prices []float64) float64 {
	return m.vol.SigmaPct(prices)
}

func (m *FiniteHorizonModel) ReservationPrice(mid, inventory, sigmaPct, timeRemaining float64) float64 {
	sigma := sigmaPct * mid
	return mid - inventory*m.cfg.Gamma*sigma*sigma*timeRemaining
}

// rawSpread is the unclamped A-S total spread. Non-positive γ or κ zeroes
// the adverse-selection term; non-positive γ also zeroes the risk term.
func (m *FiniteHorizonModel) rawSpread(mid, sigmaPct, timeRemaining float64) float64 {
	sigma := sigmaPct * mid
	gamma := m.cfg.Gamma
	spread := 0.0
	if gamma > 0 {
		spread += gamma * sigma * sigma * timeRemaining
		if m.kappa > 0 {
			spread += (2.0 / gamma) * math.Log(1.0+gamma/m.kappa)
		}
	}
	return spread
}

func (m *FiniteHorizonModel) OptimalSpread(mid, inventory, sigmaPct, timeRemaining float64) float64 {
	return m.cfg.clampSpread(m.rawSpread(mid, sigmaPct, timeRemaining))
}

func (m *FiniteHorizonModel) Quotes(mid, inventory, sigmaPct, timeRemaining float64) (float64, float64) {
	b := m.Breakdown(mid, inventory, sigmaPct, timeRemaining)
	return b.Bid, b.Ask
}

func (m *FiniteHorizonModel) Breakdown(mid, inventory, sigmaPct, timeRemaining float64) QuoteBreakdown {
	sigma := sigmaPct * mid
	r := m.ReservationPrice(mid, inventory, sigmaPct, timeRemaining)
	raw := m.rawSpread(mid, sigmaPct, timeRemaining)
	spread := m.cfg.clampSpread(raw)
	return QuoteBreakdown{
		Mid:              mid,
		SigmaPct:         sigmaPct,
		SigmaDollar:      sigma,
		TimeRemaining:    timeRemaining,
		ReservationPrice: r,
		InventorySkew:    m.cfg.Gamma * sigma * sigma * timeRemaining,
		RawSpread:        raw,
		Spread:           spread,
		Bid:              r - spread/2.0,
		Ask:              r + spread/2.0,
	}
}

// ---- Infinite horizon (GLFT) ----

// InfiniteHorizonModel quotes a stationary half-spread and per-unit skew:
//   δ* = (1/κ)·ln(1+κ/γ) + sqrt(e·σ$²·γ / (2·A·κ))
//   η  = γ·σ$² / (2·A·κ)
//   bid/ask = mid ∓ δ* − η·q
// Clamping applies to the full width 2δ* before the skew recenters the pair,
// so bounds affect width, not centering.
type InfiniteHorizonModel struct {
	cfg     ModelConfig
	vol     *VolatilityEstimator
	kappa   float64
	arrival float64
}

func NewInfiniteHorizonModel(cfg ModelConfig) *InfiniteHorizonModel {
	return &InfiniteHorizonModel{
		cfg:     cfg,
		vol:     NewVolatilityEstimator(cfg.VolWindow),
		kappa:   cfg.Kappa,
		arrival: cfg.ArrivalRate,
	}
}

func (m *InfiniteHorizonModel) Name() string { return "infinite_horizon" }

func (m *InfiniteHorizonModel) SetIntensity(kappa, arrival float64) {
	m.kappa = kappa
	m.arrival = arrival
}

func (m *InfiniteHorizonModel) CalculateVolatility(prices []float64) float64 {
	return m.vol.SigmaPct(prices)
}

// skew returns η, the per-unit-inventory price shift.
func (m *InfiniteHorizonModel) skew(sigma float64) float64 {
	den := 2.0 * m.arrival * m.kappa
	if den <= 0 || m.cfg.Gamma <= 0 {
		return 0
	}
	return m.cfg.Gamma * sigma * sigma / den
}

// rawHalfSpread is the unclamped δ*.
func (m *InfiniteHorizonModel) rawHalfSpread(sigma float64) float64 {
	gamma := m.cfg.Gamma
	half := 0.0
	if m.kappa > 0 && gamma > 0 {
		half += (1.0 / m.kappa) * math.Log(1.0+m.kappa/gamma)
	}
	den := 2.0 * m.arrival * m.kappa
	if den > 0 && gamma > 0 {
		half += math.Sqrt(math.E * sigma * sigma * gamma / den)
	}
	return half
}

func (m *InfiniteHorizonModel) ReservationPrice(mid, inventory, sigmaPct, _ float64) float64 {
	return mid - m.skew(sigmaPct*mid)*inventory
}

// OptimalSpread is invariant in timeRemaining (stationarity).
func (m *InfiniteHorizonModel) OptimalSpread(mid, inventory, sigmaPct, _ float64) float64 {
	return m.cfg.clampSpread(2.0 * m.rawHalfSpread(sigmaPct*mid))
}

func (m *InfiniteHorizonModel) Quotes(mid, inventory, sigmaPct, timeRemaining float64) (float64, float64) {
	b := m.Breakdown(mid, inventory, sigmaPct, timeRemaining)
	return b.Bid, b.Ask
}

func (m *InfiniteHorizonModel) Breakdown(mid, inventory, sigmaPct, timeRemaining float64) QuoteBreakdown {
	sigma := sigmaPct * mid
	eta := m.skew(sigma)
	raw := 2.0 * m.rawHalfSpread(sigma)
	spread := m.cfg.clampSpread(raw)
	half := spread / 2.0
	shift := eta * inventory
	return QuoteBreakdown{
		Mid:              mid,
		SigmaPct:         sigmaPct,
		SigmaDollar:      sigma,
		TimeRemaining:    timeRemaining,
		ReservationPrice: mid - shift,
		InventorySkew:    eta,
		RawSpread:        raw,
		Spread:           spread,
		Bid:              mid - half - shift,
		Ask:              mid + half - shift,
	}
}

// FillRate is the intensity model λ(δ) = A·exp(−κ·δ): strictly decreasing
// in quote depth δ and equal to A at the touch.
func (m *InfiniteHorizonModel) FillRate(delta float64) float64 {
	return m.arrival * math.Exp(-m.kappa*delta)
}
