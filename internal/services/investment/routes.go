package investment

import (
	"github.com/gofiber/fiber/v3"

	"github.com/agrovest/agrovest-api/internal/middleware"
	"github.com/agrovest/agrovest-api/internal/models"
)

// SetupRoutes registers the investment API routes.
func (s *InvestmentService) SetupRoutes(app *fiber.App, authMiddleware, adminMiddleware fiber.Handler) {
	api := app.Group("/api/investment")
	investorOnly := middleware.RequireRole(models.RoleInvestor)

	api.Post("/place", s.PlaceInvestment, authMiddleware, investorOnly)
	api.Post("/place-stripe", s.PlaceInvestmentStripe, authMiddleware, investorOnly)
	api.Post("/place-razorpay", s.PlaceInvestmentRazorpay, authMiddleware, investorOnly)
	api.Get("/user-investments", s.GetUserInvestments, authMiddleware)

	api.Get("/list", s.GetAllInvestments, adminMiddleware)
	api.Post("/status", s.UpdateStatus, adminMiddleware)
}
