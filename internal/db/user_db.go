package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agrovest/agrovest-api/internal/models"
)

// ErrUserNotFound is returned when no user row matches the given id.
var ErrUserNotFound = fmt.Errorf("user not found")

// FindUserByID loads the identity and role set for a user.
func FindUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := Pool.QueryRow(ctx, `
		SELECT id, name, email, roles
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.Roles)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user %s: %w", userID, err)
	}

	return &user, nil
}
