package engine

import "ordercore/internal/common"

// Reporter receives trade records as they are emitted. Market-data
// dissemination and execution reports to counterparties live outside the
// engine; it only notifies whatever Reporter is wired in.
type Reporter interface {
	OnTrade(common.TradeRecord)
}

// SetReporter installs r as the engine's trade sink. Passing nil disables
// reporting; the engine always works without one (tests read trades via
// LastTrades instead).
func (e *Engine) SetReporter(r Reporter) {
	e.reporter = r
}
