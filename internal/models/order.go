package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a single product line within an order.
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`

	// Product is populated by queries that join product info.
	Product *Product `json:"product,omitempty"`
}

// Order represents a retail purchase.
type Order struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Items         []OrderItem `json:"items"`
	Amount        float64     `json:"amount"`
	Address       Address     `json:"address"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	Payment       bool        `json:"payment"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Address is the delivery address attached to an order.
type Address struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Province string `json:"province"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
}
