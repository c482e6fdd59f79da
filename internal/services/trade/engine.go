package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovest/agrovest-api/internal/models"
)

// Errors returned by the lifecycle engine. The HTTP layer maps them onto
// response statuses.
var (
	ErrNotFound          = errors.New("trade not found or not authorized")
	ErrProductNotFound   = errors.New("product not found or not owned")
	ErrNotASeller        = errors.New("recipient seller not found or not a valid seller")
	ErrSelfTrade         = errors.New("cannot open a trade with yourself")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidState      = errors.New("trade cannot change state from its current status")
	ErrInsufficientStock = errors.New("not enough stock in offered product")
)

// CompletionResult is the outcome of a deferred completion attempt.
type CompletionResult int

const (
	// CompletionApplied means the trade was completed and stock debited.
	CompletionApplied CompletionResult = iota
	// CompletionSkipped means the trade was no longer accepted; nothing changed.
	CompletionSkipped
	// CompletionShortStock means the offered product could not cover the
	// quantity; nothing changed.
	CompletionShortStock
)

// ScheduledCompletion pairs an accepted trade with its persisted due time.
type ScheduledCompletion struct {
	TradeID uuid.UUID
	Due     time.Time
}

// Store is the persistence contract the engine drives. Every Mark* method
// is a compare-and-swap: it applies the transition only when the stored
// status still matches the expected source state and reports whether a row
// changed.
type Store interface {
	CreateTrade(ctx context.Context, t *models.Trade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)

	// MarkAccepted swaps pending -> accepted, stamping accepted_at and the
	// completion due time. The swap also requires the offered product to
	// still cover the trade quantity.
	MarkAccepted(ctx context.Context, id uuid.UUID, acceptedAt, completeAfter time.Time) (bool, error)
	// MarkRejected swaps pending -> rejected.
	MarkRejected(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkCancelled swaps pending -> cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkReleased swaps pending|accepted -> completed with released set.
	MarkReleased(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)

	// CompleteAccepted atomically swaps accepted -> completed and debits the
	// offered product's stock by the trade quantity. The debit must never
	// drive stock negative; a short product aborts the whole unit.
	CompleteAccepted(ctx context.Context, id uuid.UUID, completedAt time.Time) (CompletionResult, error)

	// ClearCompleteAfter drops the persisted due time without changing
	// status, so the sweep stops retrying a completion that cannot apply.
	ClearCompleteAfter(ctx context.Context, id uuid.UUID) error
	// ScheduledCompletions lists accepted trades that still carry a due time.
	ScheduledCompletions(ctx context.Context) ([]ScheduledCompletion, error)

	ProductOwnedBy(ctx context.Context, productID, sellerID uuid.UUID) (*models.Product, error)
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)
}

// Notifier receives trade lifecycle events for pushing to connected clients.
type Notifier interface {
	NotifyTrade(t *models.Trade)
}

// InitiateRequest carries the fields of a new trade proposal.
type InitiateRequest struct {
	SellerTo    uuid.UUID
	ProductFrom uuid.UUID
	ProductTo   uuid.UUID
	Quantity    int
	Notes       string
}

// Engine owns every state transition of a trade and the paired inventory
// guarantee. Transitions are compare-and-swap updates, so a deferred
// completion racing a manual reject/cancel/release resolves to exactly one
// winner.
type Engine struct {
	store    Store
	notifier Notifier
	log      *zap.Logger

	delay        time.Duration
	pollInterval time.Duration

	sched *scheduler
}

// Options configures an Engine.
type Options struct {
	// CompletionDelay is the wait between acceptance and automatic completion.
	CompletionDelay time.Duration
	// PollInterval is how often the sweep looks for due completions the
	// in-process timers missed.
	PollInterval time.Duration
	// Notifier receives lifecycle events; may be nil.
	Notifier Notifier
	Logger   *zap.Logger
}

// NewEngine creates a trade lifecycle engine.
func NewEngine(store Store, opts Options) *Engine {
	if opts.CompletionDelay <= 0 {
		opts.CompletionDelay = 15 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		store:        store,
		notifier:     opts.Notifier,
		log:          opts.Logger,
		delay:        opts.CompletionDelay,
		pollInterval: opts.PollInterval,
	}
	e.sched = newScheduler(e.completeAsync, opts.Logger)
	return e
}

// Initiate creates a new pending trade proposal.
func (e *Engine) Initiate(ctx context.Context, sellerFrom uuid.UUID, req InitiateRequest) (*models.Trade, error) {
	if sellerFrom == req.SellerTo {
		return nil, ErrSelfTrade
	}

	productFrom, err := e.store.ProductOwnedBy(ctx, req.ProductFrom, sellerFrom)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.ProductOwnedBy(ctx, req.ProductTo, req.SellerTo); err != nil {
		return nil, err
	}

	isSeller, err := e.store.HasRole(ctx, req.SellerTo, models.RoleSeller)
	if err != nil {
		return nil, err
	}
	if !isSeller {
		return nil, ErrNotASeller
	}

	if req.Quantity <= 0 || req.Quantity > productFrom.Stock {
		return nil, ErrInvalidQuantity
	}

	t := &models.Trade{
		ID:          uuid.New(),
		SellerFrom:  sellerFrom,
		SellerTo:    req.SellerTo,
		ProductFrom: req.ProductFrom,
		ProductTo:   req.ProductTo,
		Quantity:    req.Quantity,
		Status:      models.TradePending,
		Notes:       req.Notes,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := e.store.CreateTrade(ctx, t); err != nil {
		return nil, err
	}

	e.log.Info("trade initiated",
		zap.String("trade_id", t.ID.String()),
		zap.String("seller_from", sellerFrom.String()),
		zap.String("seller_to", req.SellerTo.String()),
		zap.Int("quantity", req.Quantity))
	return t, nil
}

// Accept moves a pending trade to accepted and schedules its deferred
// completion. Only the counterparty may accept, and the offered product
// must still cover the quantity.
func (e *Engine) Accept(ctx context.Context, tradeID, actor uuid.UUID) (*models.Trade, error) {
	t, err := e.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t.SellerTo != actor {
		return nil, ErrNotFound
	}
	if !t.CanBeAccepted() {
		return nil, ErrInvalidState
	}

	productFrom, err := e.store.ProductOwnedBy(ctx, t.ProductFrom, t.SellerFrom)
	if err != nil {
		return nil, err
	}
	if productFrom.Stock < t.Quantity {
		return nil, ErrInsufficientStock
	}

	now := time.Now().UTC()
	due := now.Add(e.delay)
	ok, err := e.store.MarkAccepted(ctx, tradeID, now, due)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the swap to a concurrent accept/reject/cancel, or stock
		// dropped under the quantity between the read and the update.
		return nil, ErrInvalidState
	}

	t.Status = models.TradeAccepted
	t.AcceptedAt = &now
	t.CompleteAfter = &due

	e.sched.schedule(tradeID, due)
	e.notify(t)
	e.log.Info("trade accepted",
		zap.String("trade_id", tradeID.String()),
		zap.Time("complete_after", due))
	return t, nil
}

// Reject moves a pending trade to rejected. Only the counterparty may
// reject, and only while the trade is still pending.
func (e *Engine) Reject(ctx context.Context, tradeID, actor uuid.UUID) (*models.Trade, error) {
	return e.transition(ctx, tradeID, actor, actorSellerTo, models.TradeRejected, e.store.MarkRejected)
}

// Cancel moves a pending trade to cancelled. Only the proposer may cancel.
func (e *Engine) Cancel(ctx context.Context, tradeID, actor uuid.UUID) (*models.Trade, error) {
	return e.transition(ctx, tradeID, actor, actorSellerFrom, models.TradeCancelled, e.store.MarkCancelled)
}

// Release is the proposer's manual override: it completes the trade
// immediately, marks it released, and suppresses the scheduled completion so
// no stock debit ever applies. Valid from pending or accepted only; the
// compare-and-swap makes it mutually exclusive with the deferred timer.
func (e *Engine) Release(ctx context.Context, tradeID, actor uuid.UUID) (*models.Trade, error) {
	t, err := e.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t.SellerFrom != actor {
		return nil, ErrNotFound
	}
	if t.Status != models.TradePending && t.Status != models.TradeAccepted {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	ok, err := e.store.MarkReleased(ctx, tradeID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	e.sched.drop(tradeID)

	t.Status = models.TradeCompleted
	t.Released = true
	t.CompletedAt = &now
	t.CompleteAfter = nil

	e.notify(t)
	e.log.Info("trade released", zap.String("trade_id", tradeID.String()))
	return t, nil
}

// Complete is the deferred completion handler. It re-reads the trade's
// status through a compare-and-swap: still accepted means complete plus
// debit, anything else is a no-op. Safe to invoke any number of times.
func (e *Engine) Complete(ctx context.Context, tradeID uuid.UUID) (CompletionResult, error) {
	now := time.Now().UTC()
	res, err := e.store.CompleteAccepted(ctx, tradeID, now)
	if err != nil {
		return res, err
	}

	switch res {
	case CompletionApplied:
		e.sched.drop(tradeID)
		e.log.Info("trade completed", zap.String("trade_id", tradeID.String()))
		if e.notifier != nil {
			if t, err := e.store.GetTrade(ctx, tradeID); err == nil {
				e.notify(t)
			}
		}
	case CompletionSkipped:
		e.sched.drop(tradeID)
	case CompletionShortStock:
		// Leave the trade accepted for the proposer to release manually,
		// but drop the due time so the sweep stops retrying.
		e.sched.drop(tradeID)
		if err := e.store.ClearCompleteAfter(ctx, tradeID); err != nil {
			e.log.Error("clearing completion schedule", zap.String("trade_id", tradeID.String()), zap.Error(err))
		}
		e.log.Warn("trade completion aborted: offered product short on stock",
			zap.String("trade_id", tradeID.String()))
	}
	return res, nil
}

type actorRole int

const (
	actorSellerFrom actorRole = iota
	actorSellerTo
)

// transition applies a pending-only status swap after checking the actor.
func (e *Engine) transition(ctx context.Context, tradeID, actor uuid.UUID, role actorRole,
	to models.TradeStatus, swap func(context.Context, uuid.UUID) (bool, error)) (*models.Trade, error) {

	t, err := e.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	owner := t.SellerFrom
	if role == actorSellerTo {
		owner = t.SellerTo
	}
	if owner != actor {
		return nil, ErrNotFound
	}
	if t.Status != models.TradePending {
		return nil, ErrInvalidState
	}

	ok, err := swap(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	e.sched.drop(tradeID)

	t.Status = to
	t.CompleteAfter = nil

	e.notify(t)
	e.log.Info("trade transitioned",
		zap.String("trade_id", tradeID.String()),
		zap.String("status", string(to)))
	return t, nil
}

func (e *Engine) notify(t *models.Trade) {
	if e.notifier != nil {
		e.notifier.NotifyTrade(t)
	}
}

// completeAsync runs a deferred completion with its own timeout context.
// Failures are logged, never dropped.
func (e *Engine) completeAsync(tradeID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := e.Complete(ctx, tradeID); err != nil {
		e.log.Error("deferred trade completion failed",
			zap.String("trade_id", tradeID.String()),
			zap.Error(err))
	}
}
