package auth

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes registers the user API routes.
func (s *AuthService) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	api := app.Group("/api/user")

	api.Post("/register", s.Register)
	api.Post("/login", s.Login)
	api.Post("/admin", s.AdminLogin)

	api.Post("/apply-seller", s.ApplySeller, authMiddleware)
	api.Post("/apply-investor", s.ApplyInvestor, authMiddleware)
	api.Get("/seller-status", s.SellerStatus, authMiddleware)
	api.Get("/sellers", s.GetSellers, authMiddleware)
}
