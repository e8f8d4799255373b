// FILE: orders.go
// Package main – Order ledger: cash, inventory, open orders, realized P&L.
//
// OrderManager owns everything a single backtest mutates per fill:
//   • open orders (id → Order) plus at most one tracked bid and one ask
//   • signed inventory with an absolute cap
//   • cash, weighted-average cost basis, realized P&L, total fees
//
// Error design follows the engine-wide taxonomy: constraint violations
// (inventory cap, insufficient cash) reject the order; contract violations
// (filling or cancelling an unknown id) return false; nothing here panics
// or returns an error value.

package main

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ---- Order ----

// OrderSide is the side of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderStatus is the order lifecycle state. Transitions are monotonic:
// pending → open → {partially_filled → filled} | cancelled | rejected.
type OrderStatus string

const (
	StatusPending         OrderStatus = "PENDING"
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// Order is a resting limit order inside one simulation.
type Order struct {
	ID         string
	Side       OrderSide
	Price      float64
	Quantity   float64
	Filled     float64 // invariant: Filled ≤ Quantity
	Status     OrderStatus
	CreateTime time.Time
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() float64 { return o.Quantity - o.Filled }

// FillRecord is one executed fill, the unit of the backtest trade log.
type FillRecord struct {
	OrderID  string
	Side     OrderSide
	Price    float64
	Quantity float64
	Fee      float64
	Time     time.Time
}

// ---- OrderManager ----

// OrderManager is the single-run ledger. Not safe for concurrent use; each
// simulator owns exactly one instance.
type OrderManager struct {
	cash         float64
	inventory    float64
	maxInventory float64
	makerFee     float64 // rate fraction applied to fill notionals

	open  map[string]*Order
	seq   []string // order ids in placement sequence (deterministic iteration)
	fills []FillRecord

	avgEntry    float64 // weighted-average cost basis of the current leg
	realizedPnL float64
	totalFees   float64

	bidID string // tracked quote pointers; "" = none
	askID string

	now time.Time // replay clock, advanced by the simulator
}

// NewOrderManager builds a ledger with starting cash, an absolute inventory
// cap, and a maker fee rate (fraction, e.g. 0.001).
func NewOrderManager(cash, maxInventory, makerFeeRate float64) *OrderManager {
	return &OrderManager{
		cash:         cash,
		inventory:    0,
		maxInventory: math.Abs(maxInventory),
		makerFee:     makerFeeRate,
		open:         make(map[string]*Order),
	}
}

// MarkTime advances the ledger's replay clock; order and fill timestamps
// come from here so results stay deterministic.
func (m *OrderManager) MarkTime(ts time.Time) { m.now = ts }

// ---- accessors ----

func (m *OrderManager) Cash() float64          { return m.cash }
func (m *OrderManager) Inventory() float64     { return m.inventory }
func (m *OrderManager) AvgEntryPrice() float64 { return m.avgEntry }
func (m *OrderManager) RealizedPnL() float64   { return m.realizedPnL }
func (m *OrderManager) TotalFees() float64     { return m.totalFees }
func (m *OrderManager) BidID() string          { return m.bidID }
func (m *OrderManager) AskID() string          { return m.askID }

// Fills returns a copy of the fill history.
func (m *OrderManager) Fills() []FillRecord {
	out := make([]FillRecord, len(m.fills))
	copy(out, m.fills)
	return out
}

// OpenOrders returns open orders in placement sequence. Ids of closed
// orders are compacted out of the sequence here so repeated scans over a
// long replay stay proportional to the open set, not the order history.
func (m *OrderManager) OpenOrders() []*Order {
	if len(m.seq) > len(m.open) {
		kept := m.seq[:0]
		for _, id := range m.seq {
			if _, ok := m.open[id]; ok {
				kept = append(kept, id)
			}
		}
		m.seq = kept
	}
	out := make([]*Order, 0, len(m.open))
	for _, id := range m.seq {
		if o, ok := m.open[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// OpenOrdersBySide returns open orders on one side in book-priority order:
// bids highest-first, asks lowest-first. The ordering is deterministic so
// replay runs are reproducible.
func (m *OrderManager) OpenOrdersBySide(side OrderSide) []*Order {
	var out []*Order
	for _, o := range m.OpenOrders() {
		if o.Side == side {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if side == SideBuy {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// ---- operations ----

// PlaceOrder admits a limit order against the inventory cap and cash.
// Buys that would breach the cap are first reduced to fit; if nothing fits,
// the order is rejected (nil). A buy whose notional exceeds cash is rejected
// outright with no partial reduction. Sells are symmetric against the short
// limit and carry no cash requirement.
func (m *OrderManager) PlaceOrder(side OrderSide, price, qty float64) *Order {
	if price <= 0 || qty <= 0 {
		return nil
	}

	if side == SideBuy {
		if m.inventory+qty > m.maxInventory {
			qty = m.maxInventory - m.inventory
		}
		if qty <= 0 {
			mtxRejects.WithLabelValues(string(side), "inventory_cap").Inc()
			return nil
		}
		if price*qty > m.cash {
			mtxRejects.WithLabelValues(string(side), "insufficient_cash").Inc()
			return nil
		}
	} else {
		if m.inventory-qty < -m.maxInventory {
			qty = m.inventory + m.maxInventory
		}
		if qty <= 0 {
			mtxRejects.WithLabelValues(string(side), "inventory_cap").Inc()
			return nil
		}
	}

	o := &Order{
		ID:         uuid.New().String(),
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Status:     StatusOpen,
		CreateTime: m.now,
	}
	m.open[o.ID] = o
	m.seq = append(m.seq, o.ID)
	mtxOrders.WithLabelValues(string(side)).Inc()
	return o
}

// CancelOrder is idempotent: cancelling an unknown or already-closed id
// returns false and mutates nothing.
func (m *OrderManager) CancelOrder(id string) bool {
	o, ok := m.open[id]
	if !ok {
		return false
	}
	o.Status = StatusCancelled
	delete(m.open, id)
	m.clearQuotePointer(id)
	return true
}

// CancelAll cancels every open order and returns the count.
func (m *OrderManager) CancelAll() int {
	n := 0
	for _, o := range m.OpenOrders() {
		if m.CancelOrder(o.ID) {
			n++
		}
	}
	return n
}

// FillOrder executes up to fillQty of an open order at fillPrice. The
// quantity is clamped to the order's remaining size. Returns false for an
// unknown id or a non-positive effective quantity.
func (m *OrderManager) FillOrder(id string, fillQty, fillPrice float64) bool {
	o, ok := m.open[id]
	if !ok {
		return false
	}
	qty := math.Min(fillQty, o.Remaining())
	if qty <= 0 || fillPrice <= 0 {
		return false
	}

	notional := fillPrice * qty
	fee := notional * m.makerFee
	if o.Side == SideBuy {
		m.cash -= notional + fee
		m.applyFill(qty, fillPrice)
	} else {
		m.cash += notional - fee
		m.applyFill(-qty, fillPrice)
	}
	m.totalFees += fee

	o.Filled += qty
	if o.Remaining() <= 1e-12 {
		o.Status = StatusFilled
		delete(m.open, id)
		m.clearQuotePointer(id)
	} else {
		o.Status = StatusPartiallyFilled
	}

	m.fills = append(m.fills, FillRecord{
		OrderID:  id,
		Side:     o.Side,
		Price:    fillPrice,
		Quantity: qty,
		Fee:      fee,
		Time:     m.now,
	})
	mtxFills.WithLabelValues(string(o.Side)).Inc()
	logrus.Debugf("fill side=%s price=%.2f qty=%.6f fee=%.4f inv=%.6f cash=%.2f",
		o.Side, fillPrice, qty, fee, m.inventory, m.cash)
	return true
}

// applyFill updates inventory, cost basis, and realized P&L for one signed
// fill. Closing quantity realizes P&L against the weighted-average basis;
// crossing through zero resets the basis of the new leg to the fill price.
func (m *OrderManager) applyFill(delta, price float64) {
	prev := m.inventory
	next := prev + delta

	extend := prev == 0 || (prev > 0) == (delta > 0)
	if extend {
		total := math.Abs(prev) + math.Abs(delta)
		m.avgEntry = (m.avgEntry*math.Abs(prev) + price*math.Abs(delta)) / total
		m.inventory = next
		return
	}

	closeQty := math.Min(math.Abs(delta), math.Abs(prev))
	if prev > 0 {
		m.realizedPnL += (price - m.avgEntry) * closeQty
	} else {
		m.realizedPnL += (m.avgEntry - price) * closeQty
	}
	// accumulated float arithmetic can leave a dust residue on a flattening
	// close; snap it so the basis clears (same tolerance as Remaining)
	if math.Abs(next) <= 1e-12 {
		next = 0
	}
	switch {
	case next == 0:
		m.avgEntry = 0
	case math.Abs(delta) > math.Abs(prev):
		// crossed through zero: the excess opens a fresh leg at this price
		m.avgEntry = price
	}
	m.inventory = next
}

// ForceClose flattens the entire position at the given price (stop-loss
// path). It bypasses placement constraints because closing only reduces
// risk. Returns nil when already flat.
func (m *OrderManager) ForceClose(price float64) *FillRecord {
	if m.inventory == 0 || price <= 0 {
		return nil
	}
	qty := math.Abs(m.inventory)
	side := SideSell
	delta := -qty
	if m.inventory < 0 {
		side = SideBuy
		delta = qty
	}

	notional := price * qty
	fee := notional * m.makerFee
	if side == SideBuy {
		m.cash -= notional + fee
	} else {
		m.cash += notional - fee
	}
	m.totalFees += fee
	m.applyFill(delta, price)

	rec := FillRecord{
		Side:     side,
		Price:    price,
		Quantity: qty,
		Fee:      fee,
		Time:     m.now,
	}
	m.fills = append(m.fills, rec)
	mtxFills.WithLabelValues(string(side)).Inc()
	return &rec
}

// UpdateQuotes replaces the tracked quote pair: cancel the previous bid and
// ask (if any), place fresh ones, and record their ids. Either side may be
// rejected independently; a rejected side leaves no tracked pointer.
func (m *OrderManager) UpdateQuotes(bid, ask, qty float64) (*Order, *Order) {
	if m.bidID != "" {
		m.CancelOrder(m.bidID)
	}
	if m.askID != "" {
		m.CancelOrder(m.askID)
	}

	bidOrder := m.PlaceOrder(SideBuy, bid, qty)
	askOrder := m.PlaceOrder(SideSell, ask, qty)

	m.bidID = ""
	if bidOrder != nil {
		m.bidID = bidOrder.ID
	}
	m.askID = ""
	if askOrder != nil {
		m.askID = askOrder.ID
	}
	return bidOrder, askOrder
}

// clearQuotePointer drops a tracked quote id once that order leaves the
// open set.
func (m *OrderManager) clearQuotePointer(id string) {
	if m.bidID == id {
		m.bidID = ""
	}
	if m.askID == id {
		m.askID = ""
	}
}

// ---- P&L ----

// UnrealizedPnL marks the current leg against the given price.
func (m *OrderManager) UnrealizedPnL(mark float64) float64 {
	if m.inventory == 0 {
		return 0
	}
	return (mark - m.avgEntry) * m.inventory
}

// TotalPnL is realized plus unrealized at the given mark.
func (m *OrderManager) TotalPnL(mark float64) float64 {
	return m.realizedPnL + m.UnrealizedPnL(mark)
}

// Equity is cash plus inventory marked at the given price.
func (m *OrderManager) Equity(mark float64) float64 {
	return m.cash + m.inventory*mark
}
