package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"blog/internal/config"
	"blog/internal/handlers"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/repositories"
	"blog/internal/services"
	"blog/pkg/mailqueue"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Mail Queue (optional) ---
	// When no broker is configured, reset emails go out synchronously.
	var mqClient *mailqueue.Client
	var mailPublisher services.MailPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err = mailqueue.NewClient(mailqueue.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close() // Ensure the connection is closed on exit
		mailPublisher = mqClient
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, cfg.SecretKey, cfg.ResetTokenTTL)
	postService := services.NewPostService(postRepo)
	uploadService := services.NewUploadService(cfg.StaticDir)
	emailService := services.NewEmailService(cfg, mailPublisher)

	// --- Mail Consumer ---
	// Queued reset emails are delivered by this process; delivery failures
	// are nacked and requeued by the consumer.
	if mqClient != nil {
		log.Println("Starting RabbitMQ consumer for outbound mail...")
		if consumerErr := mqClient.ConsumeMailEvents(emailService.Deliver); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}

	// --- Sessions & Views ---
	store := session.New(session.Config{
		Expiration:     7 * 24 * time.Hour,
		CookieHTTPOnly: true,
	})

	engine := html.New("./views", ".html")
	engine.AddFunc("formatDate", func(t time.Time) string {
		return t.Format("January 2, 2006")
	})

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layouts/main",
	})

	// --- Middleware ---
	app.Use(logger.New()) // Request logger
	app.Use(middleware.LoadUser(store, userRepo))

	// Uploaded avatars and post images.
	app.Static("/static", cfg.StaticDir)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, emailService, store)
	postHandler := handlers.NewPostHandler(postService, uploadService, store)
	userHandler := handlers.NewUserHandler(authService, postService, uploadService, userRepo, store)

	authHandler.RegisterRoutes(app)
	userHandler.RegisterRoutes(app)
	postHandler.RegisterRoutes(app)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase connects to PostgreSQL when a DSN is configured and falls
// back to a local SQLite file otherwise.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseDSN != "" {
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	}
	log.Printf("DATABASE_DSN not set, using SQLite at %s", cfg.SQLitePath)
	return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
}
