package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/agrovest/agrovest-api/internal/middleware"
	"github.com/agrovest/agrovest-api/internal/models"
)

// SetupRoutes registers the trade API routes.
func (s *TradeService) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	api := app.Group("/api/trades")
	api.Use(authMiddleware)

	sellerOnly := middleware.RequireRole(models.RoleSeller)

	// Any authenticated user can browse tradeable products.
	api.Get("/products-for-trade", s.GetProductsForTrade)
	api.Get("/current-user-products", s.GetCurrentUserTradeProducts)

	// Lifecycle operations require the seller role.
	api.Post("/initiate", s.InitiateTrade, sellerOnly)
	api.Post("/accept", s.AcceptTrade, sellerOnly)
	api.Post("/reject", s.RejectTrade, sellerOnly)
	api.Post("/cancel", s.CancelTrade, sellerOnly)
	api.Post("/release", s.ReleaseProduct, sellerOnly)
	api.Get("/", s.GetTrades, sellerOnly)
	api.Post("/add-for-trade", s.AddProductForTrade, sellerOnly)
	api.Get("/seller/:sellerId/available-trades", s.GetAvailableTradeProducts, sellerOnly)
}
