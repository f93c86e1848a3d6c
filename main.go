package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vibetrax-service/chain"
	"vibetrax-service/handlers"
	"vibetrax-service/middleware"
	"vibetrax-service/models"
	"vibetrax-service/services"
	"vibetrax-service/utils"
	"vibetrax-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	startedAt := time.Now()

	app := fiber.New(fiber.Config{
		BodyLimit: 200 * 1024 * 1024, // 200MB: audio files arrive through /api/tracks
	})

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		if os.Getenv("APP_ENV") == "production" {
			allowedOriginsEnv = "https://vibetrax.vercel.app,https://www.vibetrax.xyz"
		} else {
			log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
			allowedOriginsEnv = "http://localhost:5173,http://localhost:3000"
		}
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, User-Agent",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	storageReady, err := utils.InitR2()
	if err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !storageReady {
		log.Println("⚠️  R2 not configured - track asset uploads disabled")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.StreamEvent{},
		&models.LikeEvent{},
		&models.RewardClaim{},
		&models.ClaimIntent{},
		&models.Track{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Chain client is optional: without CHAIN_RPC_URL the service runs
	// store-only (no cooldown checks, no transaction verification).
	var chainClient chain.Client
	rpcURL := os.Getenv("CHAIN_RPC_URL")
	contractAddress := os.Getenv("CONTRACT_ADDRESS")
	if rpcURL != "" && contractAddress != "" {
		chainClient = chain.NewRestClient(rpcURL, contractAddress)
	} else {
		log.Println("⚠️  CHAIN_RPC_URL / CONTRACT_ADDRESS not set - running without on-chain checks")
	}

	trackingService := services.NewTrackingService(db)
	rewardsService := services.NewRewardsService(db)
	statsService := services.NewStatsService(db)
	trackService := services.NewTrackService(db)
	orchestrator := services.NewClaimOrchestrator(db, rewardsService, chainClient)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconciler := workers.NewClaimReconciler(db, chainClient, orchestrator)
	go workers.PollClaimIntents(ctx, reconciler, 2*time.Minute)

	orchestrator.StartIntentSweeper(15 * time.Minute)

	// Health check lives outside /api and outside the rate limit
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startedAt).Seconds(),
		})
	})

	api := app.Group("/api", middleware.RateLimiter())
	handlers.SetupTrackingRoutes(api, trackingService)
	handlers.SetupRewardRoutes(api, rewardsService, orchestrator)
	handlers.SetupTrackRoutes(api, trackService, statsService)

	// 404 for everything unmatched
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Route not found",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("🚀 VibeTrax service running on http://localhost:%s", port)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)
	log.Println("✅ Claim reconciler running (every 2m)")
	log.Println("✅ Intent sweeper running (every 1m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
