package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// scheduler arms one in-process timer per accepted trade. Timers only give
// promptness; durability comes from the persisted due time, which Start
// re-arms after a restart and the sweep loop re-checks on every tick.
type scheduler struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	fire   func(uuid.UUID)
	log    *zap.Logger
}

func newScheduler(fire func(uuid.UUID), log *zap.Logger) *scheduler {
	return &scheduler{
		timers: make(map[uuid.UUID]*time.Timer),
		fire:   fire,
		log:    log,
	}
}

// schedule arms a timer for the trade's due time, replacing any existing one.
// Overdue trades fire immediately.
func (s *scheduler) schedule(tradeID uuid.UUID, due time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[tradeID]; ok {
		t.Stop()
	}

	delay := time.Until(due)
	if delay < 0 {
		delay = 0
	}
	s.timers[tradeID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, tradeID)
		s.mu.Unlock()
		s.fire(tradeID)
	})
}

// drop disarms the timer for a trade that no longer needs completion.
func (s *scheduler) drop(tradeID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[tradeID]; ok {
		t.Stop()
		delete(s.timers, tradeID)
	}
}

// stopAll disarms every timer.
func (s *scheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Start re-arms timers for every persisted completion and begins the sweep
// loop. Call once after the store is ready.
func (e *Engine) Start(ctx context.Context) error {
	pending, err := e.store.ScheduledCompletions(ctx)
	if err != nil {
		return err
	}
	for _, sc := range pending {
		e.sched.schedule(sc.TradeID, sc.Due)
	}
	if len(pending) > 0 {
		e.log.Info("resumed scheduled trade completions", zap.Int("count", len(pending)))
	}

	go e.sweepLoop(ctx)
	return nil
}

// Stop disarms all in-process timers. Persisted due times survive and are
// picked up again by the next Start.
func (e *Engine) Stop() {
	e.sched.stopAll()
}

// sweepLoop periodically completes any due trade whose timer was lost,
// e.g. scheduled by another process or missed across a crash window.
func (e *Engine) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepOnce(ctx)
		}
	}
}

func (e *Engine) sweepOnce(ctx context.Context) {
	pending, err := e.store.ScheduledCompletions(ctx)
	if err != nil {
		e.log.Error("listing scheduled completions", zap.Error(err))
		return
	}

	now := time.Now()
	for _, sc := range pending {
		if sc.Due.After(now) {
			continue
		}
		e.completeAsync(sc.TradeID)
	}
}
