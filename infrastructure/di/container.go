// Package di wires the application together at startup.
package di

import (
	"context"
	"fmt"

	"georegistry-backend/application/ports"
	"georegistry-backend/application/services"
	"georegistry-backend/infrastructure/config"
	"georegistry-backend/infrastructure/messaging/eventbridge"
	"georegistry-backend/infrastructure/persistence/dynamodb"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// Container holds the initialized application graph.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	PropertyRepo ports.PropertyRepository
	AnalysisRepo ports.AnalysisRepository
	Publisher    ports.EventPublisher

	PropertyService *services.PropertyService
	ReportService   *services.ReportService
}

// InitializeContainer builds the full dependency graph from the
// environment configuration.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := provideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	dynamoClient := awsdynamodb.NewFromConfig(awsCfg)
	eventBridgeClient := awseventbridge.NewFromConfig(awsCfg)

	propertyRepo := dynamodb.NewPropertyRepository(dynamoClient, cfg.PropertiesTable, logger)
	analysisRepo := dynamodb.NewAnalysisRepository(dynamoClient, cfg.AnalysisTable, logger)
	publisher := eventbridge.NewPublisher(eventBridgeClient, cfg.EventBusName, logger)

	propertyService := services.NewPropertyService(propertyRepo, analysisRepo, publisher, logger)
	reportService := services.NewReportService(propertyRepo, logger)

	logger.Info("Container initialized",
		zap.String("environment", cfg.Environment),
		zap.String("propertiesTable", cfg.PropertiesTable),
		zap.String("analysisTable", cfg.AnalysisTable),
		zap.Bool("eventsEnabled", cfg.EventBusName != ""),
	)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		PropertyRepo:    propertyRepo,
		AnalysisRepo:    analysisRepo,
		Publisher:       publisher,
		PropertyService: propertyService,
		ReportService:   reportService,
	}, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Shutdown flushes buffered log entries.
func (c *Container) Shutdown() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
