package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/sessionhub"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Write path
	DraftsSavedTotal       metric.Int64Counter
	SessionsPublishedTotal metric.Int64Counter
	SessionsCreatedTotal   metric.Int64Counter
	ValidationErrorsTotal  metric.Int64Counter

	// Read path
	SessionsListedTotal metric.Int64Counter

	// Failures surfaced as 5xx
	OperationErrorsTotal metric.Int64Counter
	OperationDuration    metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.DraftsSavedTotal, _ = meter.Int64Counter(
		"sessionhub.sessions.drafts_saved.total",
		metric.WithDescription("Total number of successful draft saves"),
		metric.WithUnit("{session}"),
	)

	m.SessionsPublishedTotal, _ = meter.Int64Counter(
		"sessionhub.sessions.published.total",
		metric.WithDescription("Total number of successful publishes"),
		metric.WithUnit("{session}"),
	)

	m.SessionsCreatedTotal, _ = meter.Int64Counter(
		"sessionhub.sessions.created.total",
		metric.WithDescription("Total number of sessions created by a write without an id"),
		metric.WithUnit("{session}"),
	)

	m.ValidationErrorsTotal, _ = meter.Int64Counter(
		"sessionhub.sessions.validation_errors.total",
		metric.WithDescription("Total number of writes rejected by field validation"),
		metric.WithUnit("{error}"),
	)

	m.SessionsListedTotal, _ = meter.Int64Counter(
		"sessionhub.sessions.listed.total",
		metric.WithDescription("Total number of sessions returned by list operations"),
		metric.WithUnit("{session}"),
	)

	m.OperationErrorsTotal, _ = meter.Int64Counter(
		"sessionhub.operations.errors.total",
		metric.WithDescription("Total number of operations that failed with an internal error"),
		metric.WithUnit("{error}"),
	)

	m.OperationDuration, _ = meter.Float64Histogram(
		"sessionhub.operations.duration",
		metric.WithDescription("Duration of session operations"),
		metric.WithUnit("ms"),
	)

	return m
}

// RecordOperation records the duration of a named operation.
func (m *Metrics) RecordOperation(ctx context.Context, operation string, durationMs float64) {
	m.OperationDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordFailure counts an operation that ended in an internal error.
func (m *Metrics) RecordFailure(ctx context.Context, operation string) {
	m.OperationErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
