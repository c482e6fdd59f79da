package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/agrovest/agrovest-api/internal/config"
	"github.com/agrovest/agrovest-api/internal/db"
	"github.com/agrovest/agrovest-api/internal/logger"
	"github.com/agrovest/agrovest-api/internal/middleware"
	"github.com/agrovest/agrovest-api/internal/services/auth"
	"github.com/agrovest/agrovest-api/internal/services/campaign"
	"github.com/agrovest/agrovest-api/internal/services/investment"
	"github.com/agrovest/agrovest-api/internal/services/order"
	"github.com/agrovest/agrovest-api/internal/services/product"
	"github.com/agrovest/agrovest-api/internal/services/trade"
	"github.com/agrovest/agrovest-api/internal/services/upload"
	"github.com/agrovest/agrovest-api/internal/ws"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("initializing database: %v", err)
	}
	defer db.CloseDB()

	app := fiber.New(fiber.Config{
		AppName:      "AgroVest API",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	authService := auth.NewAuthService(cfg)
	jwtService := authService.GetJWTService()
	authMiddleware := middleware.AuthMiddleware(jwtService)
	adminMiddleware := middleware.AdminMiddleware(jwtService)

	hub := ws.NewHub()
	defer hub.Shutdown()

	engine := trade.NewEngine(trade.NewPostgresStore(), trade.Options{
		CompletionDelay: cfg.TradeCompletionDelay,
		PollInterval:    cfg.TradePollInterval,
		Notifier:        hub,
		Logger:          logger.L,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := engine.Start(ctx); err != nil {
		log.Fatalf("starting trade engine: %v", err)
	}
	defer engine.Stop()

	productService := product.NewProductService(cfg)
	orderService := order.NewOrderService(cfg, hub)
	campaignService := campaign.NewCampaignService(cfg)
	investmentService := investment.NewInvestmentService(cfg)
	tradeService := trade.NewTradeService(cfg, engine)

	uploadService, err := upload.NewUploadService(cfg)
	if err != nil {
		log.Fatalf("initializing upload service: %v", err)
	}

	authService.SetupRoutes(app, authMiddleware)
	productService.SetupRoutes(app, authMiddleware)
	orderService.SetupRoutes(app, authMiddleware, adminMiddleware)
	campaignService.SetupRoutes(app, adminMiddleware)
	investmentService.SetupRoutes(app, authMiddleware, adminMiddleware)
	tradeService.SetupRoutes(app, authMiddleware)
	uploadService.SetupRoutes(app, authMiddleware)

	wsServer := ws.NewServer(hub, jwtService)
	go func() {
		if err := wsServer.Listen(":" + cfg.WSPort); err != nil {
			logger.L.Fatal("websocket server stopped", zap.Error(err))
		}
	}()

	logger.L.Info("AgroVest API listening", zap.String("port", cfg.Port))
	log.Fatal(app.Listen(":" + cfg.Port))
}

// errorHandler converts unhandled errors to the JSON envelope.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
