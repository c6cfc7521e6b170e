package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/drewfead/cip/internal/commands"
)

// lambdaHandler refreshes the store on every scheduled event.
func lambdaHandler(ctx context.Context, event events.CloudWatchEvent) error {
	app := &cli.App{
		Name:     "cip",
		Commands: commands.All,
	}

	if err := app.RunContext(ctx, []string{"cip", "scrape"}); err != nil {
		return fmt.Errorf("scheduled scrape %s failed: %w", event.ID, err)
	}
	zap.L().Info("Scheduled scrape complete", zap.String("event", event.ID), zap.Time("scheduled", event.Time))
	return nil
}

func main() {
	lambda.Start(lambdaHandler)
}
