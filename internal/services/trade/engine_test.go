package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovest/agrovest-api/internal/models"
)

type fixture struct {
	store  *memStore
	engine *Engine

	sellerFrom  uuid.UUID
	sellerTo    uuid.UUID
	productFrom uuid.UUID
	productTo   uuid.UUID
}

// newFixture sets up two sellers with one tradeable product each. The
// offered product starts with stock 10.
func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	f := &fixture{
		store:       newMemStore(),
		sellerFrom:  uuid.New(),
		sellerTo:    uuid.New(),
		productFrom: uuid.New(),
		productTo:   uuid.New(),
	}
	f.store.addSeller(f.sellerFrom)
	f.store.addSeller(f.sellerTo)
	f.store.addProduct(&models.Product{
		ID: f.productFrom, SellerID: f.sellerFrom, Name: "Tomatoes",
		Stock: 10, IsActive: true, AvailableForTrade: true,
	})
	f.store.addProduct(&models.Product{
		ID: f.productTo, SellerID: f.sellerTo, Name: "Corn",
		Stock: 8, IsActive: true, AvailableForTrade: true,
	})

	f.engine = NewEngine(f.store, opts)
	t.Cleanup(f.engine.Stop)
	return f
}

func (f *fixture) initiate(t *testing.T, quantity int) *models.Trade {
	t.Helper()
	trade, err := f.engine.Initiate(context.Background(), f.sellerFrom, InitiateRequest{
		SellerTo:    f.sellerTo,
		ProductFrom: f.productFrom,
		ProductTo:   f.productTo,
		Quantity:    quantity,
	})
	require.NoError(t, err)
	return trade
}

func TestInitiateCreatesPendingTrade(t *testing.T) {
	f := newFixture(t, Options{})

	trade := f.initiate(t, 5)

	assert.Equal(t, models.TradePending, trade.Status)
	assert.True(t, trade.IsActive)
	assert.Equal(t, 5, trade.Quantity)
	// No stock is reserved at proposal time.
	assert.Equal(t, 10, f.store.productStock(f.productFrom))
}

func TestInitiateRejectsInvalidQuantity(t *testing.T) {
	f := newFixture(t, Options{})

	for _, quantity := range []int{0, -1, 20} {
		_, err := f.engine.Initiate(context.Background(), f.sellerFrom, InitiateRequest{
			SellerTo:    f.sellerTo,
			ProductFrom: f.productFrom,
			ProductTo:   f.productTo,
			Quantity:    quantity,
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", quantity)
	}

	assert.Zero(t, f.store.tradeCount(), "no trade record may be created")
	assert.Equal(t, 10, f.store.productStock(f.productFrom))
}

func TestInitiateRejectsUnownedProducts(t *testing.T) {
	f := newFixture(t, Options{})

	// Offering the counterparty's product.
	_, err := f.engine.Initiate(context.Background(), f.sellerFrom, InitiateRequest{
		SellerTo:    f.sellerTo,
		ProductFrom: f.productTo,
		ProductTo:   f.productTo,
		Quantity:    1,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)

	// Requesting a product the counterparty does not own.
	_, err = f.engine.Initiate(context.Background(), f.sellerFrom, InitiateRequest{
		SellerTo:    f.sellerTo,
		ProductFrom: f.productFrom,
		ProductTo:   uuid.New(),
		Quantity:    1,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestInitiateRejectsNonSellerRecipient(t *testing.T) {
	f := newFixture(t, Options{})

	buyer := uuid.New()
	f.store.mu.Lock()
	f.store.roles[buyer] = []string{models.RoleUser}
	f.store.products[f.productTo].SellerID = buyer
	f.store.mu.Unlock()

	_, err := f.engine.Initiate(context.Background(), f.sellerFrom, InitiateRequest{
		SellerTo:    buyer,
		ProductFrom: f.productFrom,
		ProductTo:   f.productTo,
		Quantity:    1,
	})
	assert.ErrorIs(t, err, ErrNotASeller)
}

func TestInitiateRejectsSelfTrade(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.engine.Initiate(context.Background(), f.sellerFrom, InitiateRequest{
		SellerTo:    f.sellerFrom,
		ProductFrom: f.productFrom,
		ProductTo:   f.productFrom,
		Quantity:    1,
	})
	assert.ErrorIs(t, err, ErrSelfTrade)
}

func TestAcceptByCounterparty(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour})
	trade := f.initiate(t, 5)

	accepted, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)

	assert.Equal(t, models.TradeAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	require.NotNil(t, accepted.CompleteAfter)
	assert.WithinDuration(t, accepted.AcceptedAt.Add(time.Hour), *accepted.CompleteAfter, time.Second)
	// Stock is untouched until completion.
	assert.Equal(t, 10, f.store.productStock(f.productFrom))
}

func TestAcceptRequiresCounterparty(t *testing.T) {
	f := newFixture(t, Options{})
	trade := f.initiate(t, 5)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerFrom)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.Accept(context.Background(), uuid.New(), f.sellerTo)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptInsufficientStock(t *testing.T) {
	f := newFixture(t, Options{})
	trade := f.initiate(t, 5)

	// Stock dropped below the proposed quantity since the proposal.
	f.store.setProductStock(f.productFrom, 3)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	current, err := f.store.GetTrade(context.Background(), trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradePending, current.Status)
}

func TestRejectOnlyFromPending(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour})
	trade := f.initiate(t, 5)

	rejected, err := f.engine.Reject(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)
	assert.Equal(t, models.TradeRejected, rejected.Status)

	// Terminal: nothing may leave rejected.
	_, err = f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.engine.Reject(context.Background(), trade.ID, f.sellerTo)
	assert.ErrorIs(t, err, ErrInvalidState)

	// An accepted trade cannot be rejected either.
	other := f.initiate(t, 2)
	_, err = f.engine.Accept(context.Background(), other.ID, f.sellerTo)
	require.NoError(t, err)
	_, err = f.engine.Reject(context.Background(), other.ID, f.sellerTo)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelByProposerOnly(t *testing.T) {
	f := newFixture(t, Options{})
	trade := f.initiate(t, 5)

	_, err := f.engine.Cancel(context.Background(), trade.ID, f.sellerTo)
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, err := f.engine.Cancel(context.Background(), trade.ID, f.sellerFrom)
	require.NoError(t, err)
	assert.Equal(t, models.TradeCancelled, cancelled.Status)

	// Stock stays untouched forever after a cancel.
	assert.Equal(t, 10, f.store.productStock(f.productFrom))
}

func TestDeferredCompletionDebitsStockOnce(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: 20 * time.Millisecond})
	trade := f.initiate(t, 5)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)
	assert.Equal(t, 10, f.store.productStock(f.productFrom))

	require.Eventually(t, func() bool {
		current, err := f.store.GetTrade(context.Background(), trade.ID)
		return err == nil && current.Status == models.TradeCompleted
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 5, f.store.productStock(f.productFrom))

	current, err := f.store.GetTrade(context.Background(), trade.ID)
	require.NoError(t, err)
	require.NotNil(t, current.CompletedAt)
	assert.Nil(t, current.CompleteAfter)

	// A second completion attempt is a no-op.
	res, err := f.engine.Complete(context.Background(), trade.ID)
	require.NoError(t, err)
	assert.Equal(t, CompletionSkipped, res)
	assert.Equal(t, 5, f.store.productStock(f.productFrom))
}

func TestReleaseSuppressesDeferredDebit(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: 30 * time.Millisecond})
	trade := f.initiate(t, 5)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)

	released, err := f.engine.Release(context.Background(), trade.ID, f.sellerFrom)
	require.NoError(t, err)
	assert.Equal(t, models.TradeCompleted, released.Status)
	assert.True(t, released.Released)

	// Wait well past the completion delay: the debit must never apply.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 10, f.store.productStock(f.productFrom))
}

func TestRejectBeforeDeadlineSuppressesDebit(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: 30 * time.Millisecond})
	trade := f.initiate(t, 5)

	_, err := f.engine.Reject(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 10, f.store.productStock(f.productFrom))
}

func TestReleaseRequiresProposerAndOpenState(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour})
	trade := f.initiate(t, 5)

	_, err := f.engine.Release(context.Background(), trade.ID, f.sellerTo)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.Cancel(context.Background(), trade.ID, f.sellerFrom)
	require.NoError(t, err)

	_, err = f.engine.Release(context.Background(), trade.ID, f.sellerFrom)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour})
	trade := f.initiate(t, 5)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidState)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one accept may win")
}

func TestCompletionShortStockLeavesTradeAccepted(t *testing.T) {
	f := newFixture(t, Options{CompletionDelay: time.Hour})
	trade := f.initiate(t, 5)

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)

	// Stock disappears out-of-band (e.g. a retail order) before completion.
	f.store.setProductStock(f.productFrom, 2)

	res, err := f.engine.Complete(context.Background(), trade.ID)
	require.NoError(t, err)
	assert.Equal(t, CompletionShortStock, res)

	current, err := f.store.GetTrade(context.Background(), trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeAccepted, current.Status)
	assert.Nil(t, current.CompleteAfter, "sweep must not keep retrying")
	assert.Equal(t, 2, f.store.productStock(f.productFrom))
}

func TestFullLifecycleScenario(t *testing.T) {
	// Propose quantity=5 against stock=10, accept, wait past the delay:
	// status completed, stock 5.
	f := newFixture(t, Options{CompletionDelay: 20 * time.Millisecond})
	trade := f.initiate(t, 5)
	assert.Equal(t, 10, f.store.productStock(f.productFrom))

	_, err := f.engine.Accept(context.Background(), trade.ID, f.sellerTo)
	require.NoError(t, err)
	assert.Equal(t, 10, f.store.productStock(f.productFrom))

	require.Eventually(t, func() bool {
		current, err := f.store.GetTrade(context.Background(), trade.ID)
		return err == nil && current.Status == models.TradeCompleted
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, f.store.productStock(f.productFrom))
}
