package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"huddle_backend/internal/controller"
	"huddle_backend/internal/middleware"
	"huddle_backend/internal/model"
	"huddle_backend/pkg/billing"
	"huddle_backend/pkg/config"
	"huddle_backend/pkg/cron"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/email"
	"huddle_backend/pkg/seed"
	"huddle_backend/pkg/utils/storage"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)

	// Public community pages
	public := api.Group("/c")
	public.Get("/:slug", controller.GetCommunityBySlug)
	public.Post("/:slug/join", controller.CreateJoinRequest)

	// Public featured events feed
	api.Get("/events/featured", controller.ListFeaturedEvents)

	// Protected Routes
	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)

	// Community management
	communities := protected.Group("/communities")
	communities.Get("/", controller.ListMyCommunities)
	communities.Post("/", middleware.RequireFullAccess(), controller.CreateCommunity)
	communities.Put("/:id", middleware.CheckCommunityOwnership(), controller.UpdateCommunity)
	communities.Delete("/:id", middleware.CheckCommunityOwnership(), controller.DeleteCommunity)
	communities.Post("/:id/cover", middleware.CheckCommunityOwnership(), controller.UploadCommunityCover)

	// Events per community
	communities.Get("/:id/events", middleware.CheckCommunityOwnership(), controller.ListCommunityEvents)
	communities.Post("/:id/events", middleware.CheckCommunityOwnership(), middleware.RequireFullAccess(), controller.CreateEvent)
	communities.Put("/:id/events/:event_id", middleware.CheckCommunityOwnership(), controller.UpdateEvent)
	communities.Delete("/:id/events/:event_id", middleware.CheckCommunityOwnership(), controller.DeleteEvent)
	communities.Post("/:id/events/:event_id/feature", middleware.CheckCommunityOwnership(), controller.FeatureEvent)

	// Join request management
	joinRequests := protected.Group("/join-requests")
	joinRequests.Get("/", controller.GetMyJoinRequests)
	joinRequests.Put("/:id/read", controller.MarkJoinRequestRead)
	joinRequests.Put("/:id/status", controller.UpdateJoinRequestStatus)

	// Settings routes
	settings := api.Group("/settings", middleware.AuthMiddleware())
	settings.Get("/profile", controller.GetProfile)
	settings.Put("/profile", controller.UpdateProfile)
	settings.Get("/logins", controller.GetLoginHistory)

	// Billing routes
	billingRoutes := api.Group("/billing")
	billingRoutes.Get("/plan", controller.GetPlan)

	billingProtected := billingRoutes.Use(middleware.AuthMiddleware())
	billingProtected.Post("/subscribe", controller.Subscribe)
	billingProtected.Post("/confirm", controller.ConfirmSubscription)
	billingProtected.Get("/subscription", controller.GetMySubscription)
	billingProtected.Post("/cancel", controller.CancelSubscription)
	billingProtected.Post("/portal", controller.CreatePortalSession)
	billingProtected.Post("/credits/check", controller.CheckCredits)
	billingProtected.Post("/credits/spend", controller.SpendCredits)

	// Stripe webhook
	api.Post("/webhook", controller.HandleStripeWebhook)
}

func main() {
	cfg := config.Get()

	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		if err := email.InitEmailService(apiKey); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, emails disabled")
	}

	billing.InitStripe(cfg.Stripe.SecretKey)

	if err := storage.InitStorage(); err != nil {
		log.Printf("Storage init warning: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.Organizer{},
		&model.Community{},
		&model.Event{},
		&model.JoinRequest{},
		&model.BillingSubscription{},
		&model.WebhookEvent{},
		&model.LoginHistory{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	if os.Getenv("SEED_DEMO") == "true" {
		seed.SeedDemoOrganizer(database.GetDB())
	}

	cron.InitSubscriptionSweepCron()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
