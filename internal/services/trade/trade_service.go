package trade

import (
	"context"
	"errors"

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

// TradeService exposes the trade lifecycle over HTTP.
type TradeService struct {
	cfg      *config.Config
	engine   *Engine
	validate *validator.Validate
}

// NewTradeService creates a new TradeService instance.
func NewTradeService(cfg *config.Config, engine *Engine) *TradeService {
	return &TradeService{
		cfg:      cfg,
		engine:   engine,
		validate: validator.New(),
	}
}

// InitiateTrade creates a new trade proposal.
func (s *TradeService) InitiateTrade(c fiber.Ctx) error {
	sellerFrom, err := currentUserID(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	var requestData struct {
		SellerTo      string `json:"seller_to" validate:"required,uuid"`
		ProductIDFrom string `json:"product_id_from" validate:"required,uuid"`
		ProductIDTo   string `json:"product_id_to" validate:"required,uuid"`
		Quantity      int    `json:"quantity" validate:"required,gt=0"`
		Notes         string `json:"notes"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	sellerTo, _ := uuid.Parse(requestData.SellerTo)
	productFrom, _ := uuid.Parse(requestData.ProductIDFrom)
	productTo, _ := uuid.Parse(requestData.ProductIDTo)

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := s.engine.Initiate(ctx, sellerFrom, InitiateRequest{
		SellerTo:    sellerTo,
		ProductFrom: productFrom,
		ProductTo:   productTo,
		Quantity:    requestData.Quantity,
		Notes:       requestData.Notes,
	})
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Trade initiated",
		"trade":   trade,
	})
}

// AcceptTrade accepts a pending trade as the counterparty.
func (s *TradeService) AcceptTrade(c fiber.Ctx) error {
	return s.lifecycleHandler(c, s.engine.Accept, "Trade accepted")
}

// RejectTrade rejects a pending trade as the counterparty.
func (s *TradeService) RejectTrade(c fiber.Ctx) error {
	return s.lifecycleHandler(c, s.engine.Reject, "Trade rejected")
}

// CancelTrade cancels a pending trade as the proposer.
func (s *TradeService) CancelTrade(c fiber.Ctx) error {
	return s.lifecycleHandler(c, s.engine.Cancel, "Trade cancelled")
}

// ReleaseProduct completes a trade immediately as the proposer's manual
// override, without the scheduled stock debit.
func (s *TradeService) ReleaseProduct(c fiber.Ctx) error {
	return s.lifecycleHandler(c, s.engine.Release, "Product released")
}

// lifecycleHandler runs a single-trade engine operation for the current user.
func (s *TradeService) lifecycleHandler(c fiber.Ctx,
	op func(context.Context, uuid.UUID, uuid.UUID) (*models.Trade, error), message string) error {

	actor, err := currentUserID(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	var requestData struct {
		TradeID string `json:"trade_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil || requestData.TradeID == "" {
		return respondError(c, fiber.StatusBadRequest, "Trade ID is required")
	}

	tradeID, err := uuid.Parse(requestData.TradeID)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid trade ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := op(ctx, tradeID, actor)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"trade":   trade,
	})
}

// GetTrades returns every trade the current seller participates in, newest
// first, enriched with product and counterparty summaries.
func (s *TradeService) GetTrades(c fiber.Ctx) error {
	sellerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, seller_from, seller_to, product_from, product_to, quantity, status,
               COALESCE(notes, ''), released, is_active, created_at, accepted_at, completed_at
        FROM trades
        WHERE seller_from = $1 OR seller_to = $1
        ORDER BY created_at DESC
    `, sellerID)
	if err != nil {
		logger.L.Error("querying trades", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error fetching trades")
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var t models.Trade
		var status string
		if err := rows.Scan(
			&t.ID, &t.SellerFrom, &t.SellerTo, &t.ProductFrom, &t.ProductTo, &t.Quantity, &status,
			&t.Notes, &t.Released, &t.IsActive, &t.CreatedAt, &t.AcceptedAt, &t.CompletedAt,
		); err != nil {
			logger.L.Error("scanning trade row", zap.Error(err))
			continue
		}
		if t.Status, err = models.ParseTradeStatus(status); err != nil {
			logger.L.Warn("skipping trade with unknown status", zap.String("trade_id", t.ID.String()), zap.Error(err))
			continue
		}

		t.OfferedProduct = s.getProductInfo(ctx, t.ProductFrom)
		t.RequestedProduct = s.getProductInfo(ctx, t.ProductTo)
		t.FromSeller = s.getUserInfo(ctx, t.SellerFrom)
		t.ToSeller = s.getUserInfo(ctx, t.SellerTo)

		trades = append(trades, t)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"trades":  trades,
	})
}

// GetProductsForTrade lists every product currently open for trading.
func (s *TradeService) GetProductsForTrade(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	products, err := s.queryTradeProducts(ctx, `
        SELECT p.id, p.seller_id, p.name, p.description, p.price, p.category, p.images,
               p.stock, p.is_active, p.available_for_trade, p.created_at,
               u.name, u.email
        FROM products p
        JOIN users u ON u.id = p.seller_id
        WHERE p.available_for_trade AND p.stock > 0 AND p.is_active
        ORDER BY p.created_at DESC
    `)
	if err != nil {
		logger.L.Error("querying trade products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error fetching available trade products")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// GetCurrentUserTradeProducts lists the current user's own tradeable products.
func (s *TradeService) GetCurrentUserTradeProducts(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	products, err := s.queryTradeProducts(ctx, `
        SELECT p.id, p.seller_id, p.name, p.description, p.price, p.category, p.images,
               p.stock, p.is_active, p.available_for_trade, p.created_at,
               u.name, u.email
        FROM products p
        JOIN users u ON u.id = p.seller_id
        WHERE p.seller_id = $1 AND p.available_for_trade AND p.stock > 0 AND p.is_active
        ORDER BY p.created_at DESC
    `, userID)
	if err != nil {
		logger.L.Error("querying user's trade products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error fetching user's trade products")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// GetAvailableTradeProducts lists another seller's tradeable products.
func (s *TradeService) GetAvailableTradeProducts(c fiber.Ctx) error {
	sellerID, err := uuid.Parse(c.Params("sellerId"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid seller ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	products, err := s.queryTradeProducts(ctx, `
        SELECT p.id, p.seller_id, p.name, p.description, p.price, p.category, p.images,
               p.stock, p.is_active, p.available_for_trade, p.created_at,
               u.name, u.email
        FROM products p
        JOIN users u ON u.id = p.seller_id
        WHERE p.seller_id = $1 AND p.available_for_trade AND p.stock > 0 AND p.is_active
        ORDER BY p.created_at DESC
    `, sellerID)
	if err != nil {
		logger.L.Error("querying seller's trade products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error fetching available trades")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// AddProductForTrade flags one of the seller's products as open for trading.
func (s *TradeService) AddProductForTrade(c fiber.Ctx) error {
	sellerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	var requestData struct {
		ProductID string `json:"product_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil || requestData.ProductID == "" {
		return respondError(c, fiber.StatusBadRequest, "Product ID is required")
	}

	productID, err := uuid.Parse(requestData.ProductID)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var p models.Product
	err = db.Pool.QueryRow(ctx, `
        UPDATE products
        SET available_for_trade = TRUE, updated_at = NOW()
        WHERE id = $1 AND seller_id = $2
        RETURNING id, seller_id, name, description, price, category, images, stock, is_active, available_for_trade, created_at
    `, productID, sellerID).Scan(
		&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Images,
		&p.Stock, &p.IsActive, &p.AvailableForTrade, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return respondError(c, fiber.StatusNotFound, "Product not found or not owned by seller")
		}
		logger.L.Error("flagging product for trade", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product added for trade successfully",
		"product": p,
	})
}

// queryTradeProducts runs a trade-product query and scans the rows with
// their seller summaries attached.
func (s *TradeService) queryTradeProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		var seller models.UserSummary
		if err := rows.Scan(
			&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Images,
			&p.Stock, &p.IsActive, &p.AvailableForTrade, &p.CreatedAt,
			&seller.Name, &seller.Email,
		); err != nil {
			logger.L.Error("scanning product row", zap.Error(err))
			continue
		}
		seller.ID = p.SellerID
		p.Seller = &seller
		products = append(products, p)
	}
	return products, rows.Err()
}

// getProductInfo loads a product summary for trade enrichment.
func (s *TradeService) getProductInfo(ctx context.Context, productID uuid.UUID) *models.Product {
	var p models.Product
	err := db.Pool.QueryRow(ctx, `
        SELECT id, seller_id, name, description, price, category, images, stock
        FROM products
        WHERE id = $1
    `, productID).Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Images, &p.Stock)
	if err != nil {
		logger.L.Warn("loading product summary", zap.String("product_id", productID.String()), zap.Error(err))
		return nil
	}
	return &p
}

// getUserInfo loads a user summary for trade enrichment.
func (s *TradeService) getUserInfo(ctx context.Context, userID uuid.UUID) *models.UserSummary {
	var u models.UserSummary
	err := db.Pool.QueryRow(ctx, `
        SELECT id, name, email FROM users WHERE id = $1
    `, userID).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		logger.L.Warn("loading user summary", zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}
	return &u
}

// currentUserID reads the authenticated user id from the request locals.
func currentUserID(c fiber.Ctx) (uuid.UUID, error) {
	userID, _ := c.Locals("userID").(string)
	return uuid.Parse(userID)
}

// respondEngineError maps engine errors onto the response envelope.
func respondEngineError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return respondError(c, fiber.StatusNotFound, "Trade not found or not authorized")
	case errors.Is(err, ErrProductNotFound):
		return respondError(c, fiber.StatusNotFound, "Product not found or not owned")
	case errors.Is(err, ErrNotASeller):
		return respondError(c, fiber.StatusNotFound, "Recipient seller not found or not a valid seller")
	case errors.Is(err, ErrSelfTrade):
		return respondError(c, fiber.StatusBadRequest, "You cannot trade with yourself")
	case errors.Is(err, ErrInvalidQuantity):
		return respondError(c, fiber.StatusBadRequest, "Invalid quantity")
	case errors.Is(err, ErrInvalidState):
		return respondError(c, fiber.StatusBadRequest, "Trade cannot change state from its current status")
	case errors.Is(err, ErrInsufficientStock):
		return respondError(c, fiber.StatusBadRequest, "Not enough stock in offered product")
	default:
		logger.L.Error("trade operation failed", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
}

func respondError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
