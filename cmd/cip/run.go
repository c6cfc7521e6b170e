package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/drewfead/cip/internal/commands"
)

func main() {
	app := &cli.App{
		Name:     "cip",
		Usage:    "Collect the seances of the CIP independent cinemas in Paris and query them offline",
		Commands: commands.All,
	}
	if err := app.Run(os.Args); err != nil {
		zap.L().Fatal("Fatal error", zap.Error(err))
	}
}
