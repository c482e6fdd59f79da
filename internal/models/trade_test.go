package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeStatus(t *testing.T) {
	cases := map[string]TradeStatus{
		"pending":   TradePending,
		"accepted":  TradeAccepted,
		"rejected":  TradeRejected,
		"completed": TradeCompleted,
		"cancelled": TradeCancelled,
		// Legacy rows were written with mixed casing.
		"Pending":   TradePending,
		"Rejected":  TradeRejected,
		"Completed": TradeCompleted,
		"CANCELLED": TradeCancelled,
	}

	for input, want := range cases {
		got, err := ParseTradeStatus(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseTradeStatus("canceled")
	assert.Error(t, err, "single-l spelling is not a stored value")
	_, err = ParseTradeStatus("")
	assert.Error(t, err)
}

func TestTradeStatusIsTerminal(t *testing.T) {
	assert.False(t, TradePending.IsTerminal())
	assert.False(t, TradeAccepted.IsTerminal())
	assert.True(t, TradeRejected.IsTerminal())
	assert.True(t, TradeCompleted.IsTerminal())
	assert.True(t, TradeCancelled.IsTerminal())
}

func TestTradeCanBeAccepted(t *testing.T) {
	trade := &Trade{Status: TradePending}
	assert.True(t, trade.CanBeAccepted())

	for _, status := range []TradeStatus{TradeAccepted, TradeRejected, TradeCompleted, TradeCancelled} {
		trade.Status = status
		assert.False(t, trade.CanBeAccepted(), status)
	}
}
