package campaign

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes registers the campaign API routes.
func (s *CampaignService) SetupRoutes(app *fiber.App, adminMiddleware fiber.Handler) {
	api := app.Group("/api/campaign")

	api.Get("/list", s.GetCampaigns)
	api.Get("/single/:id", s.GetCampaign)

	api.Post("/add", s.AddCampaign, adminMiddleware)
	api.Put("/update/:id", s.UpdateCampaign, adminMiddleware)
	api.Delete("/remove/:id", s.RemoveCampaign, adminMiddleware)
}
