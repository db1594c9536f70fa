package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/zhouzirui/rizzmate/backend/internal/app"
	"github.com/zhouzirui/rizzmate/backend/internal/config"
)

var adapter *httpadapter.HandlerAdapter

// init runs once per Lambda container (cold start)
func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := app.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	application, err := app.Build(context.Background(), cfg, db)
	if err != nil {
		log.Fatalf("failed to initialise backend: %v", err)
	}

	adapter = httpadapter.New(application.Router)
}

// Handler is the Lambda entrypoint for API Gateway proxy integration.
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
