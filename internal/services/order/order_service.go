package order

import (
	"encoding/json"

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

// Notifier pushes order events to connected clients.
type Notifier interface {
	NotifyOrder(order *models.Order)
}

// OrderService handles checkout and order history.
type OrderService struct {
	cfg      *config.Config
	notifier Notifier
	validate *validator.Validate
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(cfg *config.Config, notifier Notifier) *OrderService {
	return &OrderService{
		cfg:      cfg,
		notifier: notifier,
		validate: validator.New(),
	}
}

// PlaceOrder creates a cash-on-delivery order. Stock is debited per item
// inside one transaction; items that no longer exist or lack stock are
// skipped rather than failing the whole order.
func (s *OrderService) PlaceOrder(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var requestData struct {
		Items []struct {
			ProductID string `json:"product_id" validate:"required,uuid"`
			Quantity  int    `json:"quantity" validate:"required,gt=0"`
		} `json:"items" validate:"required,min=1,dive"`
		Address models.Address `json:"address"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		logger.L.Error("beginning order transaction", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer tx.Rollback(ctx)

	var amount float64
	items := []models.OrderItem{}
	for _, item := range requestData.Items {
		var price float64
		var name, unit string
		// The stock guard makes the debit race-safe under concurrent
		// checkouts; zero rows means the item is gone or short.
		err := tx.QueryRow(ctx, `
            UPDATE products
            SET stock = stock - $2,
                is_active = (stock - $2) > 0,
                updated_at = NOW()
            WHERE id = $1 AND stock >= $2
            RETURNING price, name, unit
        `, item.ProductID, item.Quantity).Scan(&price, &name, &unit)
		if err != nil {
			if err == pgx.ErrNoRows {
				continue
			}
			logger.L.Error("debiting stock", zap.Error(err))
			return respondError(c, fiber.StatusInternalServerError, "Server error")
		}

		amount += price * float64(item.Quantity)
		productID, _ := uuid.Parse(item.ProductID)
		items = append(items, models.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Product: &models.Product{
				ID:    productID,
				Name:  name,
				Price: price,
				Unit:  unit,
			},
		})
	}

	if len(items) == 0 {
		return respondError(c, fiber.StatusBadRequest, "No items available to order")
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		logger.L.Error("marshaling order items", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	orderID := uuid.New()
	_, err = tx.Exec(ctx, `
        INSERT INTO orders (id, user_id, items, amount, address, status, payment_method, payment)
        VALUES ($1, $2, $3, $4, $5, 'processing', 'cod', FALSE)
    `, orderID, userID, itemsJSON, amount, requestData.Address)
	if err != nil {
		logger.L.Error("inserting order", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	if err := tx.Commit(ctx); err != nil {
		logger.L.Error("committing order", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	uid, _ := uuid.Parse(userID)
	order := &models.Order{
		ID:            orderID,
		UserID:        uid,
		Items:         items,
		Amount:        amount,
		Address:       requestData.Address,
		Status:        "processing",
		PaymentMethod: "cod",
	}
	if s.notifier != nil {
		s.notifier.NotifyOrder(order)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order Placed",
		"order":   order,
	})
}

// GetUserOrders lists the current user's orders, newest first.
func (s *OrderService) GetUserOrders(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, items, amount, address, status, payment_method, payment, created_at
        FROM orders
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		logger.L.Error("querying user orders", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		logger.L.Error("scanning user orders", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
	})
}

// GetAllOrders lists every order for the admin dashboard.
func (s *OrderService) GetAllOrders(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, items, amount, address, status, payment_method, payment, created_at
        FROM orders
        ORDER BY created_at DESC
    `)
	if err != nil {
		logger.L.Error("querying all orders", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		logger.L.Error("scanning all orders", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
	})
}

// UpdateStatus sets an order's fulfillment status.
func (s *OrderService) UpdateStatus(c fiber.Ctx) error {
	var requestData struct {
		OrderID string `json:"order_id" validate:"required,uuid"`
		Status  string `json:"status" validate:"required"`
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
        UPDATE orders SET status = $2 WHERE id = $1
    `, requestData.OrderID, requestData.Status)
	if err != nil {
		logger.L.Error("updating order status", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusNotFound, "Order not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Status Updated",
	})
}

func scanOrders(rows pgx.Rows) ([]models.Order, error) {
	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		var itemsJSON []byte
		if err := rows.Scan(&o.ID, &o.UserID, &itemsJSON, &o.Amount, &o.Address,
			&o.Status, &o.PaymentMethod, &o.Payment, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func respondError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
