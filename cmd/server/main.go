package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/barangaylink/barangaylink-backend/internal/config"
	"github.com/barangaylink/barangaylink-backend/internal/database"
	"github.com/barangaylink/barangaylink-backend/internal/handlers"
	"github.com/barangaylink/barangaylink-backend/internal/middleware"
	"github.com/barangaylink/barangaylink-backend/internal/routes"
	"github.com/barangaylink/barangaylink-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL")

	redisClient, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("❌ Failed to connect to Redis:", err)
	}
	defer redisClient.Close()
	log.Println("✅ Connected to Redis")

	var storage *services.StorageService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		storage, err = services.NewStorageService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Fatal("❌ Failed to initialize Cloudinary:", err)
		}
		log.Println("✅ Cloudinary storage ready")
	} else {
		log.Println("⚠️ Cloudinary credentials not set - file uploads disabled")
	}

	sessions := services.NewSessionService(redisClient)
	cache := services.NewCacheService(redisClient)
	hub := services.NewEventHub(redisClient)
	hub.Start(context.Background())

	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(db, sessions),
		Profile:       handlers.NewProfileHandler(db, sessions),
		DocumentTypes: handlers.NewDocumentTypeHandler(db, sessions, cache),
		Requests:      handlers.NewRequestHandler(db, sessions, storage, hub, cfg.IDUploadsFolder),
		Attachments:   handlers.NewAttachmentHandler(db, sessions, storage, cfg.DocumentsFolder, cfg.IDUploadsFolder),
		Payments:      handlers.NewPaymentHandler(db, sessions, hub),
		Stats:         handlers.NewStatsHandler(db, sessions),
		Events:        handlers.NewEventsHandler(db, sessions, hub, cfg.AllowedOrigins),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (host check, rate limits)")
	} else {
		r.Use(middleware.RateLimit(redisClient))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	routes.SetupRoutes(r, h)

	log.Printf("🚀 Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("❌ Server failed:", err)
	}
}
