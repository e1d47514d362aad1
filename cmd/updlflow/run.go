package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dukex/updlflow/pkg/cmd"
	"github.com/dukex/updlflow/pkg/engine"
	"github.com/dukex/updlflow/pkg/log"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence/file"
	"github.com/dukex/updlflow/pkg/variables"
	cli "github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Run a flow file once and print its result",
		ArgsUsage: "<flow-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "question",
				Aliases:  []string{"q"},
				Usage:    "Question passed to the flow",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "var",
				Usage: "Override a flow variable, as name=value",
			},
			&cli.StringFlag{
				Name:  "chat-id",
				Usage: "Conversation id, reused to keep history between runs",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory for chat history and variables",
				Value:   ".updlflow",
				Sources: cli.EnvVars("UPDLFLOW_DATA_DIR"),
			},
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "Print tokens as they are generated",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return errors.New("a flow file is required")
			}

			flow, err := loadFlowFile(path)
			if err != nil {
				return err
			}

			overrides, err := parseVars(command.StringSlice("var"))
			if err != nil {
				return err
			}

			if len(overrides) > 0 {
				flow.Override.Enabled = true
			}

			logger := log.WithModule("run")
			key := command.String("openai-api-key")

			runtime, err := cmd.NewRuntime(ctx, logger, cmd.NewRegistry(logger, key), cmd.RuntimeConfig{
				OpenAIAPIKey: key,
			})
			if err != nil {
				return err
			}

			persistence := file.NewPersistence(command.String("data-dir"))
			if err := persistence.FlowRepository().Save(ctx, flow); err != nil {
				return err
			}

			out := command.Root().Writer
			req := &models.PredictionRequest{
				Question:       command.String("question"),
				ChatID:         command.String("chat-id"),
				OverrideConfig: overrides,
				Streaming:      command.Bool("stream"),
			}

			orchestrator := engine.NewOrchestrator(runtime, persistence)

			result, err := orchestrator.Predict(ctx, flow.ID, "", req,
				engine.WithoutAuthorization(),
				engine.WithStreamer(&writerStreamer{w: out}),
			)
			if err != nil {
				return err
			}

			return printResult(out, result, req.Streaming)
		},
	}
}

// parseVars turns name=value pairs into override values.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	vars := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, expected name=value", pair)
		}

		vars[name] = value
	}

	return map[string]any{variables.VarsKey: vars}, nil
}

func printResult(w io.Writer, result *models.ExecutionResult, streamed bool) error {
	if result.Text != nil {
		if streamed {
			_, err := fmt.Fprintln(w)

			return err
		}

		_, err := fmt.Fprintln(w, *result.Text)

		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(result.Scene)
}

// writerStreamer prints tokens straight to the terminal.
type writerStreamer struct {
	w io.Writer
}

func (s *writerStreamer) StreamStart(context.Context, string) {}

func (s *writerStreamer) StreamEnd(context.Context, string) {}

func (s *writerStreamer) StreamToken(_ context.Context, _ string, token string) {
	_, _ = io.WriteString(s.w, token)
}
