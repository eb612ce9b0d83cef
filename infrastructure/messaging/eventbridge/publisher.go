// Package eventbridge publishes sync events to an AWS EventBridge bus so
// downstream consumers can react to mapping and sync progress without
// polling the stores.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"mnemo-backend/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

const eventSource = "mnemo.cognitive"

// Publisher implements ports.EventPublisher on AWS EventBridge
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge publisher for the given bus
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish sends one sync event to the bus
func (p *Publisher) Publish(ctx context.Context, event ports.SyncEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBusName),
		Source:       aws.String(eventSource),
		DetailType:   aws.String(event.Type),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.Timestamp),
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("publish sync event: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, e := range result.Entries {
			if e.ErrorCode != nil {
				p.logger.Error("sync event rejected by EventBridge",
					zap.String("eventType", event.Type),
					zap.String("errorCode", aws.ToString(e.ErrorCode)),
					zap.String("errorMessage", aws.ToString(e.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d sync events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("sync event published",
		zap.String("eventType", event.Type),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}

// NoopPublisher discards events. Used when no bus is configured, typically
// in local development and tests.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that drops every event
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish implements ports.EventPublisher
func (p *NoopPublisher) Publish(context.Context, ports.SyncEvent) error {
	return nil
}
