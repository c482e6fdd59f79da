package campaign

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/agrovest/agrovest-api/internal/config"
	"github.com/agrovest/agrovest-api/internal/db"
	"github.com/agrovest/agrovest-api/internal/logger"
	"github.com/agrovest/agrovest-api/internal/models"
)

// CampaignService handles admin-curated video campaigns.
type CampaignService struct {
	cfg      *config.Config
	validate *validator.Validate
}

// NewCampaignService creates a new CampaignService instance.
func NewCampaignService(cfg *config.Config) *CampaignService {
	return &CampaignService{
		cfg:      cfg,
		validate: validator.New(),
	}
}

type campaignRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" validate:"required,url"`
	Category    string `json:"category"`
}

// AddCampaign creates a campaign.
func (s *CampaignService) AddCampaign(c fiber.Ctx) error {
	var requestData campaignRequest
	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	campaignID := uuid.New()
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO video_campaigns (id, title, description, video_url, category, created_by)
        VALUES ($1, $2, $3, $4, $5, 'admin')
    `, campaignID, requestData.Title, requestData.Description, requestData.VideoURL, requestData.Category)
	if err != nil {
		logger.L.Error("inserting campaign", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Campaign Added",
		"id":      campaignID,
	})
}

// GetCampaigns lists every campaign, newest first.
func (s *CampaignService) GetCampaigns(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, title, description, video_url, category, created_by, created_at, updated_at
        FROM video_campaigns
        ORDER BY created_at DESC
    `)
	if err != nil {
		logger.L.Error("querying campaigns", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	campaigns := []models.VideoCampaign{}
	for rows.Next() {
		var cp models.VideoCampaign
		if err := rows.Scan(&cp.ID, &cp.Title, &cp.Description, &cp.VideoURL,
			&cp.Category, &cp.CreatedBy, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
			logger.L.Error("scanning campaign row", zap.Error(err))
			continue
		}
		campaigns = append(campaigns, cp)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"campaigns": campaigns,
	})
}

// GetCampaign returns a single campaign by ID.
func (s *CampaignService) GetCampaign(c fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid campaign ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var cp models.VideoCampaign
	err = db.Pool.QueryRow(ctx, `
        SELECT id, title, description, video_url, category, created_by, created_at, updated_at
        FROM video_campaigns
        WHERE id = $1
    `, campaignID).Scan(&cp.ID, &cp.Title, &cp.Description, &cp.VideoURL,
		&cp.Category, &cp.CreatedBy, &cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return respondError(c, fiber.StatusNotFound, "Campaign not found")
		}
		logger.L.Error("querying campaign", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"campaign": cp,
	})
}

// UpdateCampaign updates an existing campaign.
func (s *CampaignService) UpdateCampaign(c fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid campaign ID")
	}

	var requestData campaignRequest
	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        UPDATE video_campaigns
        SET title = $2, description = $3, video_url = $4, category = $5, updated_at = NOW()
        WHERE id = $1
    `, campaignID, requestData.Title, requestData.Description, requestData.VideoURL, requestData.Category)
	if err != nil {
		logger.L.Error("updating campaign", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusNotFound, "Campaign not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Campaign Updated",
	})
}

// RemoveCampaign deletes a campaign.
func (s *CampaignService) RemoveCampaign(c fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid campaign ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        DELETE FROM video_campaigns WHERE id = $1
    `, campaignID)
	if err != nil {
		logger.L.Error("deleting campaign", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusNotFound, "Campaign not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Campaign Removed",
	})
}

func respondError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
