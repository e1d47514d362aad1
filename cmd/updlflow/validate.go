package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/updlflow/pkg/cmd"
	"github.com/dukex/updlflow/pkg/log"
	"github.com/dukex/updlflow/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a flow file for unknown nodes, broken edges and a missing ending node",
		ArgsUsage: "<flow-file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return errors.New("a flow file is required")
			}

			flow, err := loadFlowFile(path)
			if err != nil {
				return err
			}

			logger := log.WithModule("validate")
			reg := cmd.NewRegistry(logger, command.String("openai-api-key"))

			if err := services.ValidateFlow(reg, flow); err != nil {
				return fmt.Errorf("flow %q is invalid:\n%w", flow.Name, err)
			}

			_, err = fmt.Fprintf(command.Root().Writer, "flow %q is valid\n", flow.Name)

			return err
		},
	}
}
