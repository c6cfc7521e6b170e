package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/urfave/cli/v2"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/commands"
)

// allowedCommands excludes clean: a URL caller must not be able to wipe the store.
var allowedCommands = map[string]bool{
	"scrape": true,
	"query":  true,
	"seance": true,
}

// commandLine splits a request body such as "query --day 14/06 -o json" into
// app arguments. An empty body runs scrape.
func commandLine(body string) ([]string, error) {
	args := strings.Fields(body)
	if len(args) == 0 {
		return []string{"cip", "scrape"}, nil
	}
	if !allowedCommands[args[0]] {
		return nil, &apperrors.InputError{Field: "command", Value: args[0], Reason: "expected scrape, query or seance"}
	}
	return append([]string{"cip"}, args...), nil
}

// The Lambda filesystem is read-only outside /tmp and HOME is unset, so the
// store must be configured with CIP_DB_DRIVER and CIP_DB_DSN (postgres, or a
// sqlite path under /tmp).
func lambdaHandler(ctx context.Context, request events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	args, err := commandLine(request.Body)
	if err != nil {
		return events.LambdaFunctionURLResponse{Body: err.Error(), StatusCode: http.StatusBadRequest}, nil
	}

	var out bytes.Buffer
	app := &cli.App{
		Name:     "cip",
		Usage:    "Collect the seances of the CIP independent cinemas in Paris and query them offline",
		Commands: commands.All,
		Writer:   &out,
	}

	if err := app.RunContext(ctx, args); err != nil {
		return events.LambdaFunctionURLResponse{Body: "error", StatusCode: http.StatusInternalServerError},
			fmt.Errorf("failed to execute app: %w", err)
	}

	return events.LambdaFunctionURLResponse{
		Body:       out.String(),
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}, nil
}

func main() {
	lambda.Start(lambdaHandler)
}
