package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agrovest/agrovest-api/internal/db"
	"github.com/agrovest/agrovest-api/internal/models"
)

// PostgresStore implements Store on top of the shared connection pool.
// Every status swap is a single guarded UPDATE, so concurrent transitions
// on the same trade resolve to exactly one winner.
type PostgresStore struct{}

// NewPostgresStore creates the production Store.
func NewPostgresStore() *PostgresStore {
	return &PostgresStore{}
}

// CreateTrade inserts a new trade row.
func (s *PostgresStore) CreateTrade(ctx context.Context, t *models.Trade) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO trades (id, seller_from, seller_to, product_from, product_to, quantity, status, notes, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, t.ID, t.SellerFrom, t.SellerTo, t.ProductFrom, t.ProductTo, t.Quantity, string(t.Status), t.Notes, t.IsActive, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

// GetTrade loads a trade by id.
func (s *PostgresStore) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	var t models.Trade
	var status string
	err := db.Pool.QueryRow(ctx, `
        SELECT id, seller_from, seller_to, product_from, product_to, quantity, status,
               COALESCE(notes, ''), released, is_active, created_at, accepted_at, completed_at, complete_after
        FROM trades
        WHERE id = $1
    `, id).Scan(
		&t.ID, &t.SellerFrom, &t.SellerTo, &t.ProductFrom, &t.ProductTo, &t.Quantity, &status,
		&t.Notes, &t.Released, &t.IsActive, &t.CreatedAt, &t.AcceptedAt, &t.CompletedAt, &t.CompleteAfter,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying trade %s: %w", id, err)
	}

	t.Status, err = models.ParseTradeStatus(status)
	if err != nil {
		return nil, fmt.Errorf("trade %s: %w", id, err)
	}
	return &t, nil
}

// MarkAccepted swaps pending -> accepted. The swap also re-checks that the
// offered product still covers the quantity, closing the window between the
// engine's read and this write.
func (s *PostgresStore) MarkAccepted(ctx context.Context, id uuid.UUID, acceptedAt, completeAfter time.Time) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE trades t
        SET status = 'accepted', accepted_at = $2, complete_after = $3
        WHERE t.id = $1 AND lower(t.status) = 'pending'
          AND EXISTS (SELECT 1 FROM products p WHERE p.id = t.product_from AND p.stock >= t.quantity)
    `, id, acceptedAt, completeAfter)
	if err != nil {
		return false, fmt.Errorf("accepting trade %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRejected swaps pending -> rejected.
func (s *PostgresStore) MarkRejected(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.swapPending(ctx, id, models.TradeRejected)
}

// MarkCancelled swaps pending -> cancelled.
func (s *PostgresStore) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.swapPending(ctx, id, models.TradeCancelled)
}

func (s *PostgresStore) swapPending(ctx context.Context, id uuid.UUID, to models.TradeStatus) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE trades
        SET status = $2, complete_after = NULL
        WHERE id = $1 AND lower(status) = 'pending'
    `, id, string(to))
	if err != nil {
		return false, fmt.Errorf("updating trade %s to %s: %w", id, to, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkReleased swaps pending|accepted -> completed with the released flag.
// No stock moves on a release.
func (s *PostgresStore) MarkReleased(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE trades
        SET status = 'completed', released = TRUE, completed_at = $2, complete_after = NULL
        WHERE id = $1 AND lower(status) IN ('pending', 'accepted')
    `, id, completedAt)
	if err != nil {
		return false, fmt.Errorf("releasing trade %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteAccepted finalizes an accepted trade and debits the offered
// product inside one transaction. The row lock on the trade serializes
// concurrent completion attempts; the guarded stock update keeps the
// counter non-negative.
func (s *PostgresStore) CompleteAccepted(ctx context.Context, id uuid.UUID, completedAt time.Time) (CompletionResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return CompletionSkipped, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var productFrom uuid.UUID
	var quantity int
	err = tx.QueryRow(ctx, `
        SELECT product_from, quantity
        FROM trades
        WHERE id = $1 AND lower(status) = 'accepted'
        FOR UPDATE
    `, id).Scan(&productFrom, &quantity)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Not accepted anymore: a reject/cancel/release won the race.
			return CompletionSkipped, nil
		}
		return CompletionSkipped, fmt.Errorf("locking trade %s: %w", id, err)
	}

	tag, err := tx.Exec(ctx, `
        UPDATE products
        SET stock = stock - $2, is_active = (stock - $2) > 0, updated_at = NOW()
        WHERE id = $1 AND stock >= $2
    `, productFrom, quantity)
	if err != nil {
		return CompletionSkipped, fmt.Errorf("debiting product %s: %w", productFrom, err)
	}
	if tag.RowsAffected() == 0 {
		return CompletionShortStock, nil
	}

	_, err = tx.Exec(ctx, `
        UPDATE trades
        SET status = 'completed', completed_at = $2, complete_after = NULL
        WHERE id = $1
    `, id, completedAt)
	if err != nil {
		return CompletionSkipped, fmt.Errorf("completing trade %s: %w", id, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return CompletionSkipped, fmt.Errorf("committing completion of trade %s: %w", id, err)
	}
	return CompletionApplied, nil
}

// ClearCompleteAfter drops the persisted due time.
func (s *PostgresStore) ClearCompleteAfter(ctx context.Context, id uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, `
        UPDATE trades SET complete_after = NULL WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("clearing complete_after on trade %s: %w", id, err)
	}
	return nil
}

// ScheduledCompletions lists accepted trades still awaiting completion.
func (s *PostgresStore) ScheduledCompletions(ctx context.Context) ([]ScheduledCompletion, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, complete_after
        FROM trades
        WHERE lower(status) = 'accepted' AND complete_after IS NOT NULL
    `)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled completions: %w", err)
	}
	defer rows.Close()

	var out []ScheduledCompletion
	for rows.Next() {
		var sc ScheduledCompletion
		if err := rows.Scan(&sc.TradeID, &sc.Due); err != nil {
			return nil, fmt.Errorf("scanning scheduled completion: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ProductOwnedBy loads a product only when it belongs to the given seller.
func (s *PostgresStore) ProductOwnedBy(ctx context.Context, productID, sellerID uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := db.Pool.QueryRow(ctx, `
        SELECT id, seller_id, name, stock, is_active, available_for_trade
        FROM products
        WHERE id = $1 AND seller_id = $2
    `, productID, sellerID).Scan(&p.ID, &p.SellerID, &p.Name, &p.Stock, &p.IsActive, &p.AvailableForTrade)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("querying product %s: %w", productID, err)
	}
	return &p, nil
}

// HasRole reports whether the user holds the given role.
func (s *PostgresStore) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var has bool
	err := db.Pool.QueryRow(ctx, `
        SELECT $2 = ANY(roles) FROM users WHERE id = $1
    `, userID, role).Scan(&has)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("querying roles for user %s: %w", userID, err)
	}
	return has, nil
}
