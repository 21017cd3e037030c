// Command server runs the HTTP routing service: it wires the store,
// graph cache, result cache, and metrics together behind Fiber and
// serves GET /healthz and POST /route.
//
// Grounded on passbi_core/cmd/api/main.go's wiring and graceful
// shutdown shape, trimmed to the two routes spec.md defines.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cargorouter/routeengine/internal/api"
	"github.com/cargorouter/routeengine/internal/cache"
	"github.com/cargorouter/routeengine/internal/config"
	"github.com/cargorouter/routeengine/internal/graph"
	"github.com/cargorouter/routeengine/internal/metrics"
	"github.com/cargorouter/routeengine/internal/store"
)

func main() {
	storeCfg := config.LoadStoreConfigFromEnv()
	cacheCfg := config.LoadCacheConfigFromEnv()
	apiCfg := config.LoadAPIConfigFromEnv()

	backend, err := store.New(storeCfg)
	if err != nil {
		log.Fatalf("server: failed to connect to store: %v", err)
	}
	defer backend.Close()

	resultCache := cache.New(cacheCfg)
	defer resultCache.Close()

	graphs := graph.NewStore(backend)
	m := metrics.New(nil)

	server := api.New(graphs, resultCache, m, apiCfg)

	app := fiber.New(fiber.Config{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	server.Register(app)

	go func() {
		addr := ":" + apiCfg.Port
		log.Printf("server: listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server: listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("server: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("server: graceful shutdown failed: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
