// Package eventbridge implements the best-effort event sink on AWS
// EventBridge.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"georegistry-backend/application/ports"
	apperrors "georegistry-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	source                    = "georegistry.properties"
	detailTypePropertyCreated = "PropertyCreated"
)

// Publisher sends property events to a named EventBridge bus. An empty
// bus name disables publishing entirely; every Publish call becomes a
// no-op rather than an error. A circuit breaker keeps a failing bus
// from slowing down the request path.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

// NewPublisher creates a new EventBridge publisher.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) ports.EventPublisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "eventbridge-publisher",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Event publisher circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		breaker:      breaker,
		logger:       logger,
	}
}

// PublishPropertyCreated emits a creation event for downstream
// geospatial analysis.
func (p *Publisher) PublishPropertyCreated(ctx context.Context, event ports.PropertyCreatedEvent) error {
	if p.eventBusName == "" {
		p.logger.Debug("Event bus not configured, skipping publish",
			zap.String("propertyId", event.PropertyID),
		)
		return nil
	}

	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
			Entries: []ebtypes.PutEventsRequestEntry{
				{
					EventBusName: aws.String(p.eventBusName),
					Source:       aws.String(source),
					DetailType:   aws.String(detailTypePropertyCreated),
					Detail:       aws.String(string(detail)),
					Time:         aws.Time(time.Now().UTC()),
				},
			},
		})
		if err != nil {
			return nil, err
		}
		if out.FailedEntryCount > 0 {
			return nil, fmt.Errorf("%d events failed to publish", out.FailedEntryCount)
		}
		return out, nil
	})
	if err != nil {
		return apperrors.NewExternalError("eventbridge", err)
	}

	p.logger.Debug("Property event published",
		zap.String("propertyId", event.PropertyID),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}
