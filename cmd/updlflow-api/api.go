// Package main provides the updlflow API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/updlflow/pkg/engine"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/dukex/updlflow/pkg/services"
	"github.com/dukex/updlflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	runtime     *engine.Runtime
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	runtime *engine.Runtime,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		runtime:     runtime,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	flowService := services.NewFlow(a.persistence, a.runtime.Storage, a.logger)
	variableService := services.NewVariable(a.persistence)
	chatService := services.NewChatMessage(a.persistence)
	deploymentService := services.NewDeployment(a.persistence, a.runtime.Registry)
	orchestrator := engine.NewOrchestrator(a.runtime, a.persistence)

	handlers := web.NewAPIHandlers(
		flowService,
		variableService,
		chatService,
		deploymentService,
		orchestrator,
		a.validate,
		a.runtime.Registry,
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("updlflow API")
	})

	handlers.Register(app.Group("/api/v1"))

	return app
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errs := make(chan error, 1)

	go func() {
		errs <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "API listening", "port", port)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	a.logger.InfoContext(ctx, "Shutting down API")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
