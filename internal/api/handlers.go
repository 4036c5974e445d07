package api

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citybus/citybus_core/internal/cache"
	"github.com/citybus/citybus_core/internal/db"
	"github.com/citybus/citybus_core/internal/engine"
	"github.com/citybus/citybus_core/internal/ingest"
	"github.com/citybus/citybus_core/internal/models"
)

// Server holds the handler dependencies: the serving engine and the optional
// database and route-cache attachments (nil when disabled).
type Server struct {
	Engine *engine.Engine
	DB     *pgxpool.Pool
	Cache  *cache.RouteCache
}

// Register mounts the API routes on the app.
func (s *Server) Register(app *fiber.App) {
	app.Get("/health", s.Health)
	app.Post("/v1/process", s.ProcessDocument)
	app.Get("/v1/lines", s.LineInfo)
	app.Get("/v1/stops", s.StopInfo)
	app.Get("/v1/routes", s.RouteSearch)
}

// Health reports the engine's network size and the state of the optional
// attachments.
func (s *Server) Health(c *fiber.Ctx) error {
	checks := fiber.Map{
		"stops": s.Engine.Catalog().StopCount(),
		"lines": s.Engine.Catalog().LineCount(),
	}

	status := "healthy"
	httpStatus := 200

	if s.DB != nil {
		dbStatus := "ok"
		if err := db.HealthCheck(c.Context()); err != nil {
			dbStatus = err.Error()
			status = "unhealthy"
			httpStatus = 503
		}
		checks["database"] = dbStatus
	}

	if s.Cache != nil {
		redisStatus := "ok"
		if err := s.Cache.HealthCheck(c.Context()); err != nil {
			redisStatus = err.Error()
			status = "unhealthy"
			httpStatus = 503
		}
		checks["redis"] = redisStatus
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

// ProcessDocument answers a full query document in one round trip. The
// document is self-contained: it gets its own engine, seeded with the server
// settings when it carries no routing_settings block.
func (s *Server) ProcessDocument(c *fiber.Ctx) error {
	var doc ingest.Document
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "invalid query document: " + err.Error(),
		})
	}

	responses, err := ingest.Process(doc, s.Engine.Settings())
	if err != nil {
		log.Printf("Document processing failed: %v", err)
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(responses)
}

// LineInfo handles GET /v1/lines?name=
func (s *Server) LineInfo(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameter: name",
		})
	}

	info, err := s.Engine.InfoForLine(name)
	if errors.Is(err, engine.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{
			"error_message": err.Error(),
		})
	}
	if err != nil {
		log.Printf("Line query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(info)
}

// StopInfo handles GET /v1/stops?name=
func (s *Server) StopInfo(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameter: name",
		})
	}

	info, err := s.Engine.InfoForStop(name)
	if errors.Is(err, engine.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{
			"error_message": err.Error(),
		})
	}
	if err != nil {
		log.Printf("Stop query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(info)
}

// RouteSearch handles GET /v1/routes?from=&to=
func (s *Server) RouteSearch(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	info, err := s.routeWithCache(c.Context(), from, to)
	if errors.Is(err, engine.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{
			"error_message": err.Error(),
		})
	}
	if err != nil {
		log.Printf("Route query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(info)
}

// routeWithCache fronts the engine with the shared Redis cache when enabled.
func (s *Server) routeWithCache(ctx context.Context, from, to string) (models.RouteInfo, error) {
	if s.Cache == nil {
		return s.Engine.InfoForRoute(from, to)
	}
	return s.Cache.ComputeOnce(ctx, from, to, func() (models.RouteInfo, error) {
		return s.Engine.InfoForRoute(from, to)
	})
}
