package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citybus/citybus_core/internal/api"
	"github.com/citybus/citybus_core/internal/cache"
	"github.com/citybus/citybus_core/internal/db"
	"github.com/citybus/citybus_core/internal/engine"
	"github.com/citybus/citybus_core/internal/ingest"
	"github.com/citybus/citybus_core/internal/middleware"
	"github.com/citybus/citybus_core/internal/models"
)

func main() {
	log.Println("Starting CityBus API server...")

	settings := settingsFromEnv()

	var eng *engine.Engine
	var pool *pgxpool.Pool
	var rcache *cache.RouteCache

	// Where the network comes from: a query document on disk, the database,
	// or nothing (documents posted to /v1/process carry their own network).
	switch source := getEnv("NETWORK_SOURCE", "none"); source {
	case "file":
		path := getEnv("NETWORK_FILE", "network.json")
		var err error
		eng, err = loadNetworkFile(path, settings)
		if err != nil {
			log.Fatalf("Failed to load network from %s: %v", path, err)
		}
		log.Printf("✓ Network loaded from %s", path)
	case "db":
		var err error
		pool, err = db.Connect()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		eng = engine.New(settings)
		repo := db.NewRepository(pool)
		if err := repo.LoadNetwork(context.Background(), eng); err != nil {
			log.Fatalf("Failed to load network from database: %v", err)
		}
		log.Println("✓ Network loaded from database")
	case "none":
		eng = engine.New(settings)
		log.Println("No network source configured; serving document processing only")
	default:
		log.Fatalf("Unknown NETWORK_SOURCE %q (want file, db or none)", source)
	}

	if getEnv("REDIS_ENABLED", "false") == "true" {
		var err error
		rcache, err = cache.NewFromEnv()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rcache.Close()
		log.Println("✓ Redis connection established")
	}

	// Build the routing graph up front so the first route query pays nothing.
	if eng.Catalog().StopCount() > 0 {
		eng.InitRouter()
		log.Println("✓ Routing graph initialised")
	}

	app := fiber.New(fiber.Config{
		AppName:      "CityBus API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if rcache != nil && getEnv("RATE_LIMIT_ENABLED", "false") == "true" {
		app.Use(middleware.RateLimit(rcache.Client()))
	}

	server := &api.Server{Engine: eng, DB: pool, Cache: rcache}
	server.Register(app)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	port := getEnv("API_PORT", "8080")
	addr := fmt.Sprintf(":%s", port)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server listening on http://localhost%s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadNetworkFile builds an engine from a query document on disk. Routing
// settings in the document override the environment fallback.
func loadNetworkFile(path string, fallback models.Settings) (*engine.Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := ingest.Decode(f)
	if err != nil {
		return nil, err
	}

	eng := engine.New(doc.Settings(fallback))
	if err := ingest.Apply(doc, eng); err != nil {
		return nil, err
	}
	return eng, nil
}

func settingsFromEnv() models.Settings {
	velocity, _ := strconv.ParseFloat(getEnv("BUS_VELOCITY_KMH", "40"), 64)
	wait, _ := strconv.ParseFloat(getEnv("BUS_WAIT_TIME_MIN", "6"), 64)
	return models.Settings{VelocityKMH: velocity, WaitTimeMin: wait}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
