// Package observability emits operational metrics to CloudWatch. All calls
// are best effort; a nil client disables emission entirely.
package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes retrieval and sync metrics
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger
}

// NewMetrics creates a metrics emitter. A nil client yields a no-op emitter.
func NewMetrics(namespace string, client *cloudwatch.Client, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordRetrieval records one retrieval call: latency, result count and
// whether the query was classified as personal
func (m *Metrics) RecordRetrieval(ctx context.Context, duration time.Duration, results int, personal bool) {
	if m.client == nil {
		return
	}

	queryKind := "general"
	if personal {
		queryKind = "personal"
	}
	dims := []types.Dimension{
		{Name: aws.String("QueryKind"), Value: aws.String(queryKind)},
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("RetrievalLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("RetrievalResults"),
			Dimensions: dims,
			Value:      aws.Float64(float64(results)),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(time.Now()),
		},
	})
}

// RecordSync records one sync operation with its entity count and outcome
func (m *Metrics) RecordSync(ctx context.Context, operation string, count int, duration time.Duration, err error) {
	if m.client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	dims := []types.Dimension{
		{Name: aws.String("Operation"), Value: aws.String(operation)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("SyncLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("SyncedEntities"),
			Dimensions: dims,
			Value:      aws.Float64(float64(count)),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(time.Now()),
		},
	})
}

// RecordError records an error occurrence by type
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	if m.client == nil {
		return
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("Errors"),
			Dimensions: []types.Dimension{
				{Name: aws.String("ErrorType"), Value: aws.String(errorType)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

func (m *Metrics) put(ctx context.Context, data []types.MetricDatum) {
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("metric emission failed", zap.Error(err))
	}
}
