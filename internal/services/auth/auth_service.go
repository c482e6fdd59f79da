package auth

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrovest/agrovest-api/internal/config"
	"github.com/agrovest/agrovest-api/internal/db"
	"github.com/agrovest/agrovest-api/internal/logger"
	"github.com/agrovest/agrovest-api/internal/models"
	"github.com/agrovest/agrovest-api/internal/utils"
)

// AuthService handles registration, login and role applications.
type AuthService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	validate   *validator.Validate
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		validate:   validator.New(),
	}
}

// GetJWTService exposes the JWT service for middleware wiring.
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// Register creates a new user account.
func (s *AuthService) Register(c fiber.Ctx) error {
	var requestData struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Please enter a valid email and a password of at least 8 characters")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var exists bool
	if err := db.Pool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
    `, requestData.Email).Scan(&exists); err != nil {
		logger.L.Error("checking existing user", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if exists {
		return respondError(c, fiber.StatusBadRequest, "User already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(requestData.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.L.Error("hashing password", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	userID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, roles)
        VALUES ($1, $2, $3, $4, $5)
    `, userID, requestData.Name, requestData.Email, string(hashed), []string{models.RoleUser})
	if err != nil {
		logger.L.Error("inserting user", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	token, err := s.jwtService.GenerateToken(userID.String())
	if err != nil {
		logger.L.Error("generating token", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

// Login authenticates a user with email and password.
func (s *AuthService) Login(c fiber.Ctx) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var userID uuid.UUID
	var passwordHash string
	err := db.Pool.QueryRow(ctx, `
        SELECT id, password_hash FROM users WHERE email = $1
    `, requestData.Email).Scan(&userID, &passwordHash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return respondError(c, fiber.StatusBadRequest, "User doesn't exist")
		}
		logger.L.Error("querying user by email", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(requestData.Password)) != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid credentials")
	}

	token, err := s.jwtService.GenerateToken(userID.String())
	if err != nil {
		logger.L.Error("generating token", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

// AdminLogin authenticates against the configured admin credentials.
func (s *AuthService) AdminLogin(c fiber.Ctx) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if s.cfg.AdminEmail == "" || requestData.Email != s.cfg.AdminEmail || requestData.Password != s.cfg.AdminPassword {
		return respondError(c, fiber.StatusBadRequest, "Invalid credentials")
	}

	token, err := s.jwtService.GenerateAdminToken(requestData.Email)
	if err != nil {
		logger.L.Error("generating admin token", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

// ApplySeller attaches a seller application to the current user and grants
// the seller role.
func (s *AuthService) ApplySeller(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	var requestData struct {
		BusinessName       string `json:"business_name" validate:"required"`
		CompanyType        string `json:"company_type" validate:"required"`
		Province           string `json:"province" validate:"required"`
		City               string `json:"city" validate:"required"`
		FarmLocation       string `json:"farm_location" validate:"required"`
		ContactNumber      string `json:"contact_number" validate:"required"`
		SupportingDocument string `json:"supporting_document" validate:"required,url"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	application := models.SellerApplication{
		BusinessName:       requestData.BusinessName,
		CompanyType:        requestData.CompanyType,
		Province:           requestData.Province,
		City:               requestData.City,
		FarmLocation:       requestData.FarmLocation,
		ContactNumber:      requestData.ContactNumber,
		SupportingDocument: requestData.SupportingDocument,
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        UPDATE users
        SET roles = array_append(roles, $2), seller_application = $3, updated_at = NOW()
        WHERE id = $1 AND NOT ($2 = ANY(roles))
    `, userID, models.RoleSeller, application)
	if err != nil {
		logger.L.Error("applying as seller", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusBadRequest, "Already a seller")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Applied as Seller!",
	})
}

// ApplyInvestor attaches an investor application to the current user and
// grants the investor role.
func (s *AuthService) ApplyInvestor(c fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	var requestData struct {
		InvestmentType     string `json:"investment_type" validate:"required"`
		CompanyName        string `json:"company_name"`
		Industry           string `json:"industry"`
		ContactNumber      string `json:"contact_number" validate:"required"`
		SupportingDocument string `json:"supporting_document" validate:"required,url"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(requestData); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	application := models.InvestorApplication{
		InvestmentType:     requestData.InvestmentType,
		CompanyName:        requestData.CompanyName,
		Industry:           requestData.Industry,
		ContactNumber:      requestData.ContactNumber,
		SupportingDocument: requestData.SupportingDocument,
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        UPDATE users
        SET roles = array_append(roles, $2), investor_application = $3, updated_at = NOW()
        WHERE id = $1 AND NOT ($2 = ANY(roles))
    `, userID, models.RoleInvestor, application)
	if err != nil {
		logger.L.Error("applying as investor", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	if tag.RowsAffected() == 0 {
		return respondError(c, fiber.StatusBadRequest, "Already an investor")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Applied as Investor!",
	})
}

// SellerStatus reports whether the current user holds the seller role.
func (s *AuthService) SellerStatus(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Not authorized")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"isSeller": user.HasRole(models.RoleSeller),
	})
}

// GetSellers lists every account holding the seller role.
func (s *AuthService) GetSellers(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, name, email, roles, created_at
        FROM users
        WHERE $1 = ANY(roles)
        ORDER BY created_at DESC
    `, models.RoleSeller)
	if err != nil {
		logger.L.Error("querying sellers", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Server error")
	}
	defer rows.Close()

	sellers := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Roles, &u.CreatedAt); err != nil {
			logger.L.Error("scanning seller row", zap.Error(err))
			continue
		}
		sellers = append(sellers, u)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"sellers": sellers,
	})
}

func respondError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
