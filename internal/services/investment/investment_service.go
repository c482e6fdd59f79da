package investment

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

// InvestmentService handles campaign funding records.
type InvestmentService struct {
	cfg      *config.Config
	validate *validator.Validate
}

// NewInvestmentService creates a new InvestmentService instance.
func NewInvestmentService(cfg *config.Config) *InvestmentService {
	return &InvestmentService{
		cfg:      cfg,
		validate: validator.New(),
	}
}

// PlaceInvestment records a cash investment against a campaign.
func (s *InvestmentService) PlaceInvestment(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var requestData struct {
		CampaignID string  `json:"campaign_id" validate:"required,uuid"`
		Amount     float64 `json:"amount" validate:"required,gt=0"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var exists bool
	if err := db.Pool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM video_campaigns WHERE id = $1)
    `, requestData.CampaignID).Scan(&exists); err != nil {
		logger.L.Error("checking campaign", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if !exists {
		return respondError(c, fiber.StatusNotFound, "Campaign not found")
	}

	investmentID := uuid.New()
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO investments (id, user_id, campaign_id, amount, status, payment_method, payment)
        VALUES ($1, $2, $3, $4, 'pending', 'cod', FALSE)
    `, investmentID, userID, requestData.CampaignID, requestData.Amount)
	if err != nil {
		logger.L.Error("inserting investment", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Investment Placed",
		"id":      investmentID,
	})
}

// PlaceInvestmentStripe is a placeholder for card payments.
func (s *InvestmentService) PlaceInvestmentStripe(c fiber.Ctx) error {
	return respondError(c, fiber.StatusNotImplemented, "Stripe payments are not available yet")
}

// PlaceInvestmentRazorpay is a placeholder for Razorpay payments.
func (s *InvestmentService) PlaceInvestmentRazorpay(c fiber.Ctx) error {
	return respondError(c, fiber.StatusNotImplemented, "Razorpay payments are not available yet")
}

// GetUserInvestments lists the current user's investments, newest first.
func (s *InvestmentService) GetUserInvestments(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, campaign_id, amount, status, payment_method, payment, created_at
        FROM investments
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		logger.L.Error("querying user investments", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	investments, err := scanInvestments(rows)
	if err != nil {
		logger.L.Error("scanning user investments", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"investments": investments,
	})
}

// GetAllInvestments lists every investment for the admin dashboard.
func (s *InvestmentService) GetAllInvestments(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, campaign_id, amount, status, payment_method, payment, created_at
        FROM investments
        ORDER BY created_at DESC
    `)
	if err != nil {
		logger.L.Error("querying all investments", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	investments, err := scanInvestments(rows)
	if err != nil {
		logger.L.Error("scanning all investments", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"investments": investments,
	})
}

// UpdateStatus sets an investment's status.
func (s *InvestmentService) UpdateStatus(c fiber.Ctx) error {
	var requestData struct {
		InvestmentID string `json:"investment_id" validate:"required,uuid"`
		Status       string `json:"status" validate:"required"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        UPDATE investments SET status = $2 WHERE id = $1
    `, requestData.InvestmentID, requestData.Status)
	if err != nil {
		logger.L.Error("updating investment status", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusNotFound, "Investment not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Status Updated",
	})
}

func scanInvestments(rows pgx.Rows) ([]models.Investment, error) {
	investments := []models.Investment{}
	for rows.Next() {
		var inv models.Investment
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.CampaignID, &inv.Amount,
			&inv.Status, &inv.PaymentMethod, &inv.Payment, &inv.CreatedAt); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

func respondError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
