package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/updlflow/pkg/cmd"
	"github.com/dukex/updlflow/pkg/log"
	"github.com/dukex/updlflow/pkg/otelhelper"
	"github.com/dukex/updlflow/pkg/telemetry"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 3000

func main() {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	command := &cli.Command{
		Name:                  "updlflow-api",
		Usage:                 "Serve flow predictions and flow management over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL: a directory, file://path or postgres://...",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Cache pool URL: memory:// or redis://...",
				Value:   "memory://",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Telemetry event bus (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "storage-path",
				Usage:   "Directory for uploaded files, empty disables uploads",
				Value:   "./data/storage",
				Sources: cli.EnvVars("STORAGE_PATH"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "Default OpenAI key for chat models and transcription",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing updlflow API")

	config := cmd.RuntimeConfig{
		CacheURL:     command.String("cache-url"),
		StoragePath:  command.String("storage-path"),
		OpenAIAPIKey: command.String("openai-api-key"),
	}

	if command.Bool("otel-enabled") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "updlflow-api")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()

		config.Tracer = tracer
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if err := telemetry.NewAuditLog(logger).Register(eventBus); err != nil {
		return err
	}

	if err := eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to flow events: %w", err)
	}

	sink := telemetry.NewBusSink(eventBus, logger)
	defer sink.Flush()

	config.Telemetry = sink

	registry := cmd.NewRegistry(logger, command.String("openai-api-key"))

	runtime, err := cmd.NewRuntime(ctx, logger, registry, config)
	if err != nil {
		return err
	}

	defer func() {
		if err := runtime.Cache.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close cache pool", "error", err)
		}
	}()

	return NewAPI(logger, persistence, runtime).Start(ctx, command.Int("port"))
}
