package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a unit of sellable inventory.
type Product struct {
	ID                uuid.UUID  `json:"id"`
	SellerID          uuid.UUID  `json:"seller_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Price             float64    `json:"price"`
	Unit              string     `json:"unit,omitempty"`
	Category          string     `json:"category"`
	Images            []string   `json:"images"`
	HarvestDate       *time.Time `json:"harvest_date,omitempty"`
	Stock             int        `json:"stock"`
	IsActive          bool       `json:"is_active"`
	AvailableForTrade bool       `json:"available_for_trade"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Seller is populated by queries that join seller info.
	Seller *UserSummary `json:"seller,omitempty"`
}
