package trade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovest/agrovest-api/internal/models"
)

func TestStartResumesPersistedCompletions(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour, PollInterval: time.Hour})
	trade := f.initiate(t, 5)

	// Accept, then simulate a process restart: a fresh engine on the same
	// store with no in-process timer for the accepted trade.
	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)
	f.engine.Stop()

	// Rewind the persisted due time so it is already overdue.
	past := time.Now().Add(-time.Minute)
	f.store.mu.Lock()
	f.store.trades[trade.ID].CompleteAfter = &past
	f.store.mu.Unlock()

	restarted := NewEngine(f.store, Options{CompletionDelay: time.Hour, PollInterval: time.Hour})
	t.Cleanup(restarted.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, restarted.Start(ctx))

	require.Eventually(t, func() bool {
		current, err := f.store.GetTrade(context.Background(), trade.ID)
		return err == nil && current.Status == models.TradeCompleted
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, f.store.productStock(f.productFrom))
}

func TestSweepCompletesDueTrades(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour, PollInterval: 10 * time.Millisecond})
	trade := f.initiate(t, 4)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)

	// Drop the in-process timer and rewind the due time; only the sweep
	// loop can pick this up now.
	f.engine.sched.drop(trade.ID)
	past := time.Now().Add(-time.Minute)
	f.store.mu.Lock()
	f.store.trades[trade.ID].CompleteAfter = &past
	f.store.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.engine.sweepLoop(ctx)

	require.Eventually(t, func() bool {
		current, err := f.store.GetTrade(context.Background(), trade.ID)
		return err == nil && current.Status == models.TradeCompleted
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 6, f.store.productStock(f.productFrom))
}

func TestSweepIgnoresFutureDueTimes(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour, PollInterval: time.Hour})
	trade := f.initiate(t, 4)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)

	f.engine.sweepOnce(context.Background())

	current, err := f.store.GetTrade(context.Background(), trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeAccepted, current.Status)
	assert.Equal(t, 10, f.store.productStock(f.productFrom))
}

func TestScheduleReplacesExistingTimer(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour})
	trade := f.initiate(t, 3)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)

	// Re-scheduling the same trade must not leak a second timer.
	f.engine.sched.schedule(trade.ID, time.Now().Add(time.Hour))
	f.engine.sched.schedule(trade.ID, time.Now().Add(time.Hour))

	f.engine.sched.mu.Lock()
	count := len(f.engine.sched.timers)
	f.engine.sched.mu.Unlock()
	assert.Equal(t, 1, count)

	f.engine.sched.drop(trade.ID)
	f.engine.sched.mu.Lock()
	count = len(f.engine.sched.timers)
	f.engine.sched.mu.Unlock()
	assert.Zero(t, count)
}
