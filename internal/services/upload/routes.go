package upload

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes registers the upload API routes.
func (s *UploadService) SetupRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	api := app.Group("/api/upload")
	api.Use(authMiddleware)

	api.Get("/params", s.GenerateUploadParams)
	api.Post("/file", s.UploadFile)
}
