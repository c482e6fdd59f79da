package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrovest/agrovest-api/internal/models"
)

// memStore is an in-memory Store with the same compare-and-swap semantics
// as the Postgres implementation.
type memStore struct {
	mu       sync.Mutex
	trades   map[uuid.UUID]*models.Trade
	products map[uuid.UUID]*models.Product
	roles    map[uuid.UUID][]string
}

func newMemStore() *memStore {
	return &memStore{
		trades:   make(map[uuid.UUID]*models.Trade),
		products: make(map[uuid.UUID]*models.Product),
		roles:    make(map[uuid.UUID][]string),
	}
}

func (m *memStore) addSeller(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[id] = []string{models.RoleUser, models.RoleSeller}
}

func (m *memStore) addProduct(p *models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
}

func (m *memStore) productStock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memStore) setProductStock(id uuid.UUID, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id].Stock = stock
}

func (m *memStore) tradeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trades)
}

func (m *memStore) CreateTrade(_ context.Context, t *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.trades[t.ID] = &cp
	return nil
}

func (m *memStore) GetTrade(_ context.Context, id uuid.UUID) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) MarkAccepted(_ context.Context, id uuid.UUID, acceptedAt, completeAfter time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok || t.Status != models.TradePending {
		return false, nil
	}
	p, ok := m.products[t.ProductFrom]
	if !ok || p.Stock < t.Quantity {
		return false, nil
	}
	t.Status = models.TradeAccepted
	at, due := acceptedAt, completeAfter
	t.AcceptedAt = &at
	t.CompleteAfter = &due
	return true, nil
}

func (m *memStore) MarkRejected(_ context.Context, id uuid.UUID) (bool, error) {
	return m.swapPending(id, models.TradeRejected)
}

func (m *memStore) MarkCancelled(_ context.Context, id uuid.UUID) (bool, error) {
	return m.swapPending(id, models.TradeCancelled)
}

func (m *memStore) swapPending(id uuid.UUID, to models.TradeStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok || t.Status != models.TradePending {
		return false, nil
	}
	t.Status = to
	t.CompleteAfter = nil
	return true, nil
}

func (m *memStore) MarkReleased(_ context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok || (t.Status != models.TradePending && t.Status != models.TradeAccepted) {
		return false, nil
	}
	at := completedAt
	t.Status = models.TradeCompleted
	t.Released = true
	t.CompletedAt = &at
	t.CompleteAfter = nil
	return true, nil
}

func (m *memStore) CompleteAccepted(_ context.Context, id uuid.UUID, completedAt time.Time) (CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok || t.Status != models.TradeAccepted {
		return CompletionSkipped, nil
	}
	p, ok := m.products[t.ProductFrom]
	if !ok || p.Stock < t.Quantity {
		return CompletionShortStock, nil
	}
	p.Stock -= t.Quantity
	p.IsActive = p.Stock > 0
	at := completedAt
	t.Status = models.TradeCompleted
	t.CompletedAt = &at
	t.CompleteAfter = nil
	return CompletionApplied, nil
}

func (m *memStore) ClearCompleteAfter(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trades[id]; ok {
		t.CompleteAfter = nil
	}
	return nil
}

func (m *memStore) ScheduledCompletions(_ context.Context) ([]ScheduledCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ScheduledCompletion
	for _, t := range m.trades {
		if t.Status == models.TradeAccepted && t.CompleteAfter != nil {
			out = append(out, ScheduledCompletion{TradeID: t.ID, Due: *t.CompleteAfter})
		}
	}
	return out, nil
}

func (m *memStore) ProductOwnedBy(_ context.Context, productID, sellerID uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.SellerID != sellerID {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) HasRole(_ context.Context, userID uuid.UUID, role string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}
