package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/agrovest/agrovest-api/internal/db"
	"github.com/agrovest/agrovest-api/internal/models"
	"github.com/agrovest/agrovest-api/internal/utils"
)

// AuthMiddleware verifies the bearer token and loads the caller's identity
// and role set into the request locals.
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Not authorized. Please log in.",
			})
		}

		userIDStr, err := jwtService.ExtractUserID(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid token. Please log in again.",
			})
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid user ID",
			})
		}

		ctx, cancel := db.GetContext()
		defer cancel()

		user, err := db.FindUserByID(ctx, userID)
		if err != nil {
			if err == db.ErrUserNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": "User not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Server error",
			})
		}

		c.Locals("userID", user.ID.String())
		c.Locals("user", user)

		return c.Next()
	}
}

// RequireRole guards a handler behind a role capability. Must run after
// AuthMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(c fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok || !user.HasRole(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Access denied. Not a " + role + ".",
			})
		}
		return c.Next()
	}
}

// AdminMiddleware guards a handler behind the admin token claim.
func AdminMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok || !jwtService.IsAdminToken(tokenString) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Not authorized as admin",
			})
		}
		return c.Next()
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
