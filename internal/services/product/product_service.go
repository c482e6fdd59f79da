package product

import (
	"fmt"
	"time"

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

// ProductService handles the produce catalog.
type ProductService struct {
	cfg      *config.Config
	validate *validator.Validate
}

// NewProductService creates a new ProductService instance.
func NewProductService(cfg *config.Config) *ProductService {
	return &ProductService{
		cfg:      cfg,
		validate: validator.New(),
	}
}

type productRequest struct {
	Name              string   `json:"name" validate:"required"`
	Description       string   `json:"description"`
	Price             float64  `json:"price" validate:"required,gt=0"`
	Unit              string   `json:"unit" validate:"required"`
	Category          string   `json:"category" validate:"required"`
	Images            []string `json:"images"`
	HarvestDate       *string  `json:"harvest_date"`
	Stock             int      `json:"stock" validate:"gte=0"`
	AvailableForTrade bool     `json:"available_for_trade"`
}

// AddProduct creates a product owned by the current seller.
func (s *ProductService) AddProduct(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var requestData productRequest
	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	harvestDate, err := parseHarvestDate(requestData.HarvestDate)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid harvest date")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	productID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO products (id, seller_id, name, description, price, unit, category,
                              images, harvest_date, stock, is_active, available_for_trade)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, productID, userID, requestData.Name, requestData.Description, requestData.Price,
		requestData.Unit, requestData.Category, requestData.Images, harvestDate,
		requestData.Stock, requestData.Stock > 0, requestData.AvailableForTrade)
	if err != nil {
		logger.L.Error("inserting product", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product Added",
		"id":      productID,
	})
}

// GetProducts lists every active product with its seller's name.
func (s *ProductService) GetProducts(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT p.id, p.seller_id, p.name, p.description, p.price, p.unit, p.category,
               p.images, p.harvest_date, p.stock, p.is_active, p.available_for_trade,
               p.created_at, p.updated_at, u.name, u.email
        FROM products p
        JOIN users u ON u.id = p.seller_id
        WHERE p.is_active = TRUE
        ORDER BY p.created_at DESC
    `)
	if err != nil {
		logger.L.Error("querying products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		logger.L.Error("scanning products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// GetProduct returns a single product by ID.
func (s *ProductService) GetProduct(c fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	row := db.Pool.QueryRow(ctx, `
        SELECT p.id, p.seller_id, p.name, p.description, p.price, p.unit, p.category,
               p.images, p.harvest_date, p.stock, p.is_active, p.available_for_trade,
               p.created_at, p.updated_at, u.name, u.email
        FROM products p
        JOIN users u ON u.id = p.seller_id
        WHERE p.id = $1
    `, productID)

	product, err := scanProduct(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return respondError(c, fiber.StatusNotFound, "Product not found")
		}
		logger.L.Error("querying product", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// UpdateProduct updates a product owned by the current seller. Activity
// follows stock: a product with zero stock is delisted.
func (s *ProductService) UpdateProduct(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	var requestData productRequest
	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	harvestDate, err := parseHarvestDate(requestData.HarvestDate)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid harvest date")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        UPDATE products
        SET name = $3, description = $4, price = $5, unit = $6, category = $7,
            images = $8, harvest_date = $9, stock = $10, is_active = $11,
            available_for_trade = $12, updated_at = NOW()
        WHERE id = $1 AND seller_id = $2
    `, productID, userID, requestData.Name, requestData.Description, requestData.Price,
		requestData.Unit, requestData.Category, requestData.Images, harvestDate,
		requestData.Stock, requestData.Stock > 0, requestData.AvailableForTrade)
	if err != nil {
		logger.L.Error("updating product", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusNotFound, "Product not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product Updated",
	})
}

// RemoveProduct deletes a product owned by the current seller.
func (s *ProductService) RemoveProduct(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var requestData struct {
		ProductID string `json:"product_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	productID, err := uuid.Parse(requestData.ProductID)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        DELETE FROM products WHERE id = $1 AND seller_id = $2
    `, productID, userID)
	if err != nil {
		logger.L.Error("deleting product", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusNotFound, "Product not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product Removed",
	})
}

// GetSellerProducts lists the current seller's own products, active or not.
func (s *ProductService) GetSellerProducts(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT p.id, p.seller_id, p.name, p.description, p.price, p.unit, p.category,
               p.images, p.harvest_date, p.stock, p.is_active, p.available_for_trade,
               p.created_at, p.updated_at, u.name, u.email
        FROM products p
        JOIN users u ON u.id = p.seller_id
        WHERE p.seller_id = $1
        ORDER BY p.created_at DESC
    `, userID)
	if err != nil {
		logger.L.Error("querying seller products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		logger.L.Error("scanning seller products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// GetSoonHarvestProducts lists active products harvested within the next
// seven days.
func (s *ProductService) GetSoonHarvestProducts(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT p.id, p.seller_id, p.name, p.description, p.price, p.unit, p.category,
               p.images, p.harvest_date, p.stock, p.is_active, p.available_for_trade,
               p.created_at, p.updated_at, u.name, u.email
        FROM products p
        JOIN users u ON u.id = p.seller_id
        WHERE p.is_active = TRUE
          AND p.harvest_date IS NOT NULL
          AND p.harvest_date BETWEEN NOW() AND NOW() + INTERVAL '7 days'
        ORDER BY p.harvest_date ASC
    `)
	if err != nil {
		logger.L.Error("querying soon-harvest products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		logger.L.Error("scanning soon-harvest products", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// parseHarvestDate accepts either a date or a full RFC 3339 timestamp.
func parseHarvestDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date format: %q", *value)
}

func scanProducts(rows pgx.Rows) ([]models.Product, error) {
	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	seller := &models.UserSummary{}
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Unit,
		&p.Category, &p.Images, &p.HarvestDate, &p.Stock, &p.IsActive,
		&p.AvailableForTrade, &p.CreatedAt, &p.UpdatedAt, &seller.Name, &seller.Email)
	if err != nil {
		return p, err
	}
	seller.ID = p.SellerID
	p.Seller = seller
	return p, nil
}

func respondError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
