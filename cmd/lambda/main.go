package main

import (
	"context"
	"log"
	"time"

	"georegistry-backend/infrastructure/config"
	"georegistry-backend/infrastructure/di"
	"georegistry-backend/interfaces/http/rest"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda *chiadapter.ChiLambda
	container *di.Container
	coldStart = true
)

// init runs once per Lambda cold start.
func init() {
	start := time.Now()
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	handler := rest.NewRouter(container).Setup()
	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.New(chiRouter)

	container.Logger.Info("Cold start completed",
		zap.Duration("duration", time.Since(start)),
	)
}

// Handler proxies API Gateway requests into the chi router. The
// adapter carries the gateway request context, including the
// authorizer claims, into the request context for the auth middleware.
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if coldStart {
		coldStart = false
		container.Logger.Info("First invocation after cold start",
			zap.String("path", req.Path),
			zap.String("method", req.HTTPMethod),
		)
	}
	return chiLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
