package utils

import (
	"testing"
	"time"

	"chart-feed/src/logger"

	"github.com/stretchr/testify/assert"
)

func TestMICForSymbol(t *testing.T) {
	assert.Equal(t, "xlon", MICForSymbol("VOD.L"))
	assert.Equal(t, "xtks", MICForSymbol("7203.T"))
	assert.Equal(t, "xhkg", MICForSymbol("0700.hk"))
	assert.Equal(t, DefaultMIC, MICForSymbol("AAPL"))
	assert.Equal(t, DefaultMIC, MICForSymbol("BRK.B"))
}

func TestFallbackCalendar(t *testing.T) {
	tc := NewFallbackCalendar("xnys")
	ny := tc.Timezone

	// Wednesday 2024-07-10
	assert.True(t, tc.IsOpenOnMinute(time.Date(2024, 7, 10, 10, 0, 0, 0, ny)))
	assert.True(t, tc.IsOpenOnMinute(time.Date(2024, 7, 10, 9, 30, 0, 0, ny)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 7, 10, 9, 29, 0, 0, ny)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 7, 10, 16, 0, 0, 0, ny)))
	// Saturday
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 7, 13, 12, 0, 0, 0, ny)))
}

func TestMarketHoursGate(t *testing.T) {
	tc := NewFallbackCalendar("xnys")
	now := time.Date(2024, 7, 10, 12, 0, 0, 0, tc.Timezone)

	g := &MarketHoursGate{
		Calendar: tc,
		Logger:   logger.NewNopLogger(),
		Now:      func() time.Time { return now },
	}
	assert.True(t, g.IsOpen())

	now = time.Date(2024, 7, 14, 12, 0, 0, 0, tc.Timezone)
	assert.False(t, g.IsOpen())

	var nilGate *MarketHoursGate
	assert.True(t, nilGate.IsOpen())
}

func TestNewTradingCalendar_WeekendClosed(t *testing.T) {
	tc := NewTradingCalendar("xnys")
	saturday := time.Date(2024, 7, 13, 15, 0, 0, 0, time.UTC)
	assert.False(t, tc.IsOpenOnMinute(saturday))
	assert.False(t, tc.IsTradingDay(saturday))
}
