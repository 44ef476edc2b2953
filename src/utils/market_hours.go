package utils

import (
	"sync/atomic"
	"time"

	"chart-feed/src/logger"
)

// -----------------------------------------------------------------------------
// MarketHoursGate decides whether a session may produce a sample right now.
// A nil gate is always open.
// -----------------------------------------------------------------------------

type MarketHoursGate struct {
	Calendar *TradingCalendar
	Logger   *logger.Logger
	Now      func() time.Time

	wasOpen atomic.Int32 // 0 unknown, 1 open, 2 closed
}

// -----------------------------------------------------------------------------

// NewMarketHoursGate resolves the calendar from mic, or from the symbol suffix
// when mic is empty.
func NewMarketHoursGate(mic, symbol string, log *logger.Logger) *MarketHoursGate {
	if mic == "" {
		mic = MICForSymbol(symbol)
	}
	g := &MarketHoursGate{
		Calendar: NewTradingCalendar(mic),
		Logger:   log,
		Now:      time.Now,
	}
	log.Info("Market hours gate using calendar %s (fallback=%v)", g.Calendar.MIC, g.Calendar.Fallback)
	return g
}

// -----------------------------------------------------------------------------

// IsOpen reports whether the market is trading now, logging transitions.
func (g *MarketHoursGate) IsOpen() bool {
	if g == nil {
		return true
	}

	open := g.Calendar.IsOpenOnMinute(g.Now().UTC())

	state := int32(2)
	if open {
		state = 1
	}
	if prev := g.wasOpen.Swap(state); prev != state && g.Logger != nil {
		if open {
			g.Logger.Info("Market %s opened, resuming production", g.Calendar.MIC)
		} else {
			g.Logger.Info("Market %s closed, ticks are skipped", g.Calendar.MIC)
		}
	}
	return open
}
