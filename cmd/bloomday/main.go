package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bloomday/bloomday/app/repository"
	"github.com/bloomday/bloomday/internal/pkg/auditqueue"
	"github.com/bloomday/bloomday/internal/pkg/cache"
	"github.com/bloomday/bloomday/internal/pkg/database"
	"github.com/bloomday/bloomday/internal/pkg/env"
	"github.com/bloomday/bloomday/internal/pkg/metrics/counter"
	"github.com/bloomday/bloomday/internal/pkg/router"
)

func main() {
	app := NewApplication()
	defer auditqueue.GetQueue().Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Start the background audit trail workers
	auditqueue.GetQueue().Start()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/bloomday to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		// Provider payloads are small JSON documents
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	metricsAuth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	})
	app.Get("/metrics", metricsAuth, monitor.New())

	// webhook outcome counters for operators
	app.Get("/metrics/webhooks", metricsAuth, func(c *fiber.Ctx) error {
		outcomes, err := counter.WebhookOutcomes()
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Counter store unreachable"})
		}
		return c.JSON(fiber.Map{"outcomes": outcomes})
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
