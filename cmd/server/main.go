package main

import (
	"log"
	"os"

	v1 "codeclover/api/v1"
	"codeclover/internal/auth"
	"codeclover/internal/cache"
	"codeclover/internal/config"
	"codeclover/internal/db"
	"codeclover/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Println("✓ Configuration loaded")

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3. Initialize Redis (optional; used for rate limiting)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
			os.Exit(1)
		}
		defer cache.Close()
		rdb = cache.Client
	}

	// 4. Run migrations and seed the initial admin account
	if cfg.Migrate {
		if err := db.Migrate(db.DB()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}
	if err := db.SeedAdmin(db.DB(), cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
		os.Exit(1)
	}

	// 5. Initialize JWT signing
	auth.InitJWT(cfg.JWT.Secret)

	// 6. Prepare the upload directory and image processor
	uploads, err := upload.NewProcessor(cfg.Upload.Dir, cfg.MaxUploadBytes())
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
		os.Exit(1)
	}

	// 7. Initialize Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	v1.SetupRouter(r, db.DB(), cfg, rdb, uploads)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	// Start server
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
