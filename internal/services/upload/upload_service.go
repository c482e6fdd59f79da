package upload

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/agrovest/agrovest-api/internal/config"
	"github.com/agrovest/agrovest-api/internal/logger"
)

// UploadService handles Cloudinary uploads for product images and
// application documents.
type UploadService struct {
	cfg          *config.Config
	cld          *cloudinary.Cloudinary
	uploadPreset string
}

// NewUploadService creates a new UploadService instance.
func NewUploadService(cfg *config.Config) (*UploadService, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryConfig.CloudName,
		cfg.CloudinaryConfig.APIKey,
		cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing cloudinary: %w", err)
	}

	return &UploadService{
		cfg:          cfg,
		cld:          cld,
		uploadPreset: cfg.CloudinaryConfig.UploadPreset,
	}, nil
}

// GenerateSignature builds the Cloudinary request signature for the
// given parameters.
func (s *UploadService) GenerateSignature(params map[string]string) string {
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")
	signatureString += s.cfg.CloudinaryConfig.APISecret

	h := sha1.New()
	h.Write([]byte(signatureString))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams returns signed parameters so the client can upload
// directly to Cloudinary.
func (s *UploadService) GenerateUploadParams(c fiber.Ctx) error {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := map[string]string{
		"timestamp":     timestamp,
		"upload_preset": s.uploadPreset,
	}
	signature := s.GenerateSignature(params)

	return c.JSON(fiber.Map{
		"success":       true,
		"timestamp":     timestamp,
		"signature":     signature,
		"upload_preset": s.uploadPreset,
		"api_key":       s.cfg.CloudinaryConfig.APIKey,
		"cloud_name":    s.cfg.CloudinaryConfig.CloudName,
	})
}

// UploadFile accepts a multipart file and uploads it server-side. Used for
// seller and investor application documents.
func (s *UploadService) UploadFile(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing file",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.L.Error("opening uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}
	defer file.Close()

	result, err := s.cld.Upload.Upload(c.Context(), file, uploader.UploadParams{
		Folder:       "agrovest/documents",
		UploadPreset: s.uploadPreset,
	})
	if err != nil {
		logger.L.Error("uploading to cloudinary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Upload failed",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"url":       result.SecureURL,
		"public_id": result.PublicID,
	})
}
