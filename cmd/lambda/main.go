package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/yieldkeeper/internal/app"
	"github.com/elys-network/yieldkeeper/internal/handler"
	"github.com/elys-network/yieldkeeper/internal/logger"
)

// main is the AWS Lambda entry point. Setup happens once per container; every
// invocation still opens its own chain session.
func main() {
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "json"
	}
	logger.Initialize(os.Getenv("LOG_LEVEL"), format)

	application, bootErr := app.Bootstrap(context.Background())
	if bootErr != nil {
		log.Error().Err(bootErr).Msg("Keeper bootstrap failed; invocations will return 500")
	} else {
		defer application.Close()
	}

	lambda.Start(func(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error) {
		if bootErr != nil {
			return handler.Response(bootErr), nil
		}
		return application.Handler.Invoke(ctx, event), nil
	})
}
