package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/pulsechat/pulse-backend/internal/config"
	"github.com/pulsechat/pulse-backend/internal/database"
	"github.com/pulsechat/pulse-backend/internal/handlers"
	"github.com/pulsechat/pulse-backend/internal/middleware"
	"github.com/pulsechat/pulse-backend/internal/routes"
	"github.com/pulsechat/pulse-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if cfg.JWTSecret == "your-secret-key-change-in-production" && cfg.IsProduction() {
		log.Fatal("JWT_SECRET must be set in production")
	}

	// Connect to PostgreSQL (user accounts)
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis (rate limiting)
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (message history)
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	if err := services.EnsureMessageIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB message indexes: %v", err)
	} else {
		log.Println("✅ MongoDB message indexes ensured")
	}

	// Cloudinary is optional; without it, image payloads are rejected with a
	// clear error instead of failing startup.
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Image uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Image uploads will not be available")
	}

	// Wire the chat core: Postgres-backed users, Mongo-backed messages,
	// in-memory presence, and the persist-then-push delivery router on top.
	users := services.NewPostgresUserStore()
	store := services.NewMongoMessageStore()
	registry := services.NewPresenceRegistry()
	delivery := services.NewDeliveryRouter(store, registry)
	handlers.Init(cfg, users, store, registry, delivery)

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimitMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, cfg)

	// Production: serve the frontend build alongside the API.
	if cfg.IsProduction() {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			r.NotFound(routes.StaticFallback(cfg.StaticDir))
			log.Printf("✅ Serving static frontend from %s", cfg.StaticDir)
		}
	}

	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/auth/signup")
	log.Println("  POST /api/auth/login")
	log.Println("  POST /api/auth/logout")
	log.Println("  GET  /api/auth/me")
	log.Println("  PUT  /api/auth/profile")
	log.Println("  POST /api/message/send")
	log.Println("  GET  /api/message/conversations")
	log.Println("  GET  /api/message/{otherUserID}")
	log.Println("  GET  /ws")

	log.Printf("🚀 Pulse backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
