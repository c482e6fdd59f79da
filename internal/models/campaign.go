package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoCampaign represents a crowdfunding-style video campaign.
type VideoCampaign struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url"`
	Category    string    `json:"category"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Investment represents a funding record against a campaign.
type Investment struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CampaignID    uuid.UUID `json:"campaign_id"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	Payment       bool      `json:"payment"`
	CreatedAt     time.Time `json:"created_at"`
}
