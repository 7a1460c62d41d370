package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes operational metrics to CloudWatch. It satisfies
// the query bus Metrics interface so bus middleware can time and count
// dispatches. A nil client disables publication, which keeps local
// runs free of AWS calls.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger
}

// NewMetrics creates a metrics instance scoped to a namespace such as
// "Nexus/production".
func NewMetrics(namespace string, client *cloudwatch.Client, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// Increment records a single count for a metric under a label
// dimension. Publication is fire and forget.
func (m *Metrics) Increment(metric, label string) {
	m.put(metric, label, 1, types.StandardUnitCount)
}

// StartTimer begins timing an operation. Stopping the returned timer
// publishes the elapsed duration in milliseconds.
func (m *Metrics) StartTimer(metric, label string) Timer {
	return &cloudWatchTimer{
		metrics: m,
		metric:  metric,
		label:   label,
		started: time.Now(),
	}
}

// RecordLatency publishes an operation duration directly.
func (m *Metrics) RecordLatency(metric, label string, elapsed time.Duration) {
	m.put(metric, label, float64(elapsed.Milliseconds()), types.StandardUnitMilliseconds)
}

// RecordValue publishes an arbitrary gauge-style value, such as a
// confidence score or node count.
func (m *Metrics) RecordValue(metric, label string, value float64) {
	m.put(metric, label, value, types.StandardUnitNone)
}

func (m *Metrics) put(metric, label string, value float64, unit types.StandardUnit) {
	if m.client == nil {
		return
	}

	// Publish off the request path with a short deadline so a slow
	// CloudWatch endpoint never stalls a handler.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace: aws.String(m.namespace),
			MetricData: []types.MetricDatum{
				{
					MetricName: aws.String(metric),
					Dimensions: []types.Dimension{
						{
							Name:  aws.String("Label"),
							Value: aws.String(label),
						},
					},
					Value:     aws.Float64(value),
					Unit:      unit,
					Timestamp: aws.Time(time.Now()),
				},
			},
		})
		if err != nil && m.logger != nil {
			m.logger.Debug("Failed to publish metric",
				zap.String("metric", metric),
				zap.Error(err),
			)
		}
	}()
}

// Timer measures one operation.
type Timer interface {
	Stop()
}

type cloudWatchTimer struct {
	metrics *Metrics
	metric  string
	label   string
	started time.Time
}

func (t *cloudWatchTimer) Stop() {
	t.metrics.RecordLatency(t.metric, t.label, time.Since(t.started))
}
