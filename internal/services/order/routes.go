package order

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes registers the order API routes.
func (s *OrderService) SetupRoutes(app *fiber.App, authMiddleware, adminMiddleware fiber.Handler) {
	api := app.Group("/api/order")

	api.Post("/place", s.PlaceOrder, authMiddleware)
	api.Get("/user-orders", s.GetUserOrders, authMiddleware)

	api.Get("/list", s.GetAllOrders, adminMiddleware)
	api.Post("/status", s.UpdateStatus, adminMiddleware)
}
