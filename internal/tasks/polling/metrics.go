package polling

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricNamePollFetches  = "dashboard_poll_fetch_total"
	metricNamePollFailures = "dashboard_poll_failure_total"
	metricNamePollActive   = "dashboard_poll_sessions_active"
)

type pollMetrics struct {
	fetches  metric.Int64Counter
	failures metric.Int64Counter
	active   metric.Int64UpDownCounter
	attrs    metric.MeasurementOption
	enabled  bool
}

func newPollMetrics(meter metric.Meter, kind string, helper *log.Helper) *pollMetrics {
	m := &pollMetrics{attrs: metric.WithAttributes(attribute.String("kind", kind))}
	if meter == nil {
		return m
	}

	var err error
	if m.fetches, err = meter.Int64Counter(metricNamePollFetches,
		metric.WithDescription("Number of status fetches issued by poll sessions")); err != nil {
		helper.Warnf("poll metrics: register fetch counter: %v", err)
		return m
	}
	if m.failures, err = meter.Int64Counter(metricNamePollFailures,
		metric.WithDescription("Number of poll sessions stopped by a fetch failure")); err != nil {
		helper.Warnf("poll metrics: register failure counter: %v", err)
	}
	if m.active, err = meter.Int64UpDownCounter(metricNamePollActive,
		metric.WithDescription("Number of running poll sessions")); err != nil {
		helper.Warnf("poll metrics: register active gauge: %v", err)
	}
	m.enabled = true
	return m
}

func (m *pollMetrics) recordFetch(ctx context.Context) {
	if m == nil || !m.enabled || m.fetches == nil {
		return
	}
	m.fetches.Add(ctx, 1, m.attrs)
}

func (m *pollMetrics) recordFailure(ctx context.Context) {
	if m == nil || !m.enabled || m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1, m.attrs)
}

func (m *pollMetrics) sessionDelta(ctx context.Context, delta int64) {
	if m == nil || !m.enabled || m.active == nil {
		return
	}
	m.active.Add(ctx, delta, m.attrs)
}
