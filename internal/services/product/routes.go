package product

import (
	"github.com/gofiber/fiber/v3"

	"github.com/agrovest/agrovest-api/internal/middleware"
	"github.com/agrovest/agrovest-api/internal/models"
)

// SetupRoutes registers the product API routes.
func (s *ProductService) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	api := app.Group("/api/product")
	sellerOnly := middleware.RequireRole(models.RoleSeller)

	api.Get("/list", s.GetProducts)
	api.Get("/soon-harvest", s.GetSoonHarvestProducts)
	api.Get("/single/:id", s.GetProduct)

	api.Post("/add", s.AddProduct, authMiddleware, sellerOnly)
	api.Put("/update/:id", s.UpdateProduct, authMiddleware, sellerOnly)
	api.Post("/remove", s.RemoveProduct, authMiddleware, sellerOnly)
	api.Get("/seller-products", s.GetSellerProducts, authMiddleware, sellerOnly)
}
