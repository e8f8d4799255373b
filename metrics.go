// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the engine updates during a backtest:
//   • bot_equity_usd                 – Current equity snapshot (gauge)
//   • bot_inventory_base             – Current signed inventory (gauge)
//   • bot_orders_total{side}         – Count of limit orders placed
//   • bot_order_rejects_total{side,reason} – Rejected order attempts
//   • bot_fills_total{side}          – Count of simulated fills
//   • bot_skipped_candles_total      – Candles skipped by the regime gate
//   • bot_stop_loss_exits_total      – Stop-loss force-closes
//   • bot_quote_refreshes_total      – Tick-simulator quote refresh cycles
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_equity_usd",
			Help: "Equity in USD (cash + inventory marked at last price)",
		},
	)

	mtxInventory = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_inventory_base",
			Help: "Signed base inventory (positive = long)",
		},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Limit orders placed",
		},
		[]string{"side"},
	)

	mtxRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_order_rejects_total",
			Help: "Order attempts rejected by ledger constraints",
		},
		[]string{"side", "reason"}, // reason: inventory_cap|insufficient_cash
	)

	mtxFills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_fills_total",
			Help: "Simulated limit-order fills",
		},
		[]string{"side"},
	)

	mtxSkippedCandles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_skipped_candles_total",
			Help: "Candles where quoting was paused by the regime gate",
		},
	)

	mtxStopLoss = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_stop_loss_exits_total",
			Help: "Positions force-closed by the stop-loss check",
		},
	)

	mtxQuoteRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_quote_refreshes_total",
			Help: "Quote refresh cycles executed by the tick simulator",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxEquity, mtxInventory)
	prometheus.MustRegister(mtxOrders, mtxRejects, mtxFills)
	prometheus.MustRegister(mtxSkippedCandles, mtxStopLoss, mtxQuoteRefreshes)
}
