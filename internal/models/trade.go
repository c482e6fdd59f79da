package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TradeStatus is the lifecycle state of a trade proposal.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeAccepted  TradeStatus = "accepted"
	TradeRejected  TradeStatus = "rejected"
	TradeCompleted TradeStatus = "completed"
	TradeCancelled TradeStatus = "cancelled"
)

// ParseTradeStatus normalizes a stored status value. Legacy rows carry
// mixed-case values ("Rejected", "Pending"), so matching is case-insensitive.
func ParseTradeStatus(s string) (TradeStatus, error) {
	switch TradeStatus(strings.ToLower(s)) {
	case TradePending:
		return TradePending, nil
	case TradeAccepted:
		return TradeAccepted, nil
	case TradeRejected:
		return TradeRejected, nil
	case TradeCompleted:
		return TradeCompleted, nil
	case TradeCancelled:
		return TradeCancelled, nil
	}
	return "", fmt.Errorf("unknown trade status %q", s)
}

// IsTerminal reports whether no further transition may leave this status.
func (s TradeStatus) IsTerminal() bool {
	return s == TradeRejected || s == TradeCompleted || s == TradeCancelled
}

// Trade represents a barter proposal between two sellers.
type Trade struct {
	ID          uuid.UUID   `json:"id"`
	SellerFrom  uuid.UUID   `json:"seller_from"`
	SellerTo    uuid.UUID   `json:"seller_to"`
	ProductFrom uuid.UUID   `json:"product_from"`
	ProductTo   uuid.UUID   `json:"product_to"`
	Quantity    int         `json:"quantity"`
	Status      TradeStatus `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	Released    bool        `json:"released"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	AcceptedAt  *time.Time  `json:"accepted_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`

	// CompleteAfter is the persisted due time for the deferred completion,
	// set on acceptance and cleared once the trade reaches a terminal state.
	CompleteAfter *time.Time `json:"complete_after,omitempty"`

	// Populated by queries that join product and seller info.
	OfferedProduct   *Product     `json:"offered_product,omitempty"`
	RequestedProduct *Product     `json:"requested_product,omitempty"`
	FromSeller       *UserSummary `json:"from_seller,omitempty"`
	ToSeller         *UserSummary `json:"to_seller,omitempty"`
}

// CanBeAccepted reports whether the trade is still open for acceptance.
func (t *Trade) CanBeAccepted() bool {
	return t.Status == TradePending
}
