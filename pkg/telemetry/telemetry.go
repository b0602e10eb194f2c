// Package telemetry implements placement.Reporter on top of OpenTelemetry
// metrics and tracing: counters for ensemble creations, replacements, and
// cluster-change events, a latency histogram for selector calls, and a span
// per newEnsemble/replaceBookie call so operators can watch placement
// activity alongside the rest of their OTel-instrumented stack
// (SPEC_FULL.md section 3.2).
package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/orneryd/ensembleplacement"

	regionsKey = "placement.regions"
)

// Reporter records placement events as OpenTelemetry counters, a latency
// histogram, and spans. It implements placement.Reporter without importing
// it, avoiding an import cycle between pkg/telemetry and pkg/placement.
type Reporter struct {
	tracer trace.Tracer

	ensemblesCreated  metric.Int64Counter
	bookiesReplaced   metric.Int64Counter
	clusterChangeSize metric.Int64Counter
	selectionLatency  metric.Float64Histogram
	placementFailures metric.Int64Counter
}

// New builds a Reporter against the given MeterProvider and TracerProvider.
// Pass otel.GetMeterProvider()/otel.GetTracerProvider() to use the globally
// configured instances.
func New(meterProvider metric.MeterProvider, tracerProvider trace.TracerProvider) (*Reporter, error) {
	meter := meterProvider.Meter(instrumentationName)

	ensemblesCreated, err := meter.Int64Counter(
		"placement.ensembles_created",
		metric.WithDescription("Number of ensembles successfully placed"),
	)
	if err != nil {
		return nil, err
	}

	bookiesReplaced, err := meter.Int64Counter(
		"placement.bookies_replaced",
		metric.WithDescription("Number of single-bookie replacements performed"),
	)
	if err != nil {
		return nil, err
	}

	clusterChangeSize, err := meter.Int64Counter(
		"placement.cluster_change_nodes",
		metric.WithDescription("Total writable+read-only nodes observed across cluster-change events"),
	)
	if err != nil {
		return nil, err
	}

	selectionLatency, err := meter.Float64Histogram(
		"placement.selection_latency",
		metric.WithDescription("Wall time spent inside newEnsemble/replaceBookie"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	placementFailures, err := meter.Int64Counter(
		"placement.failures",
		metric.WithDescription("Number of newEnsemble/replaceBookie calls that returned an error, by operation and error"),
	)
	if err != nil {
		return nil, err
	}

	return &Reporter{
		tracer:            tracerProvider.Tracer(instrumentationName),
		ensemblesCreated:  ensemblesCreated,
		bookiesReplaced:   bookiesReplaced,
		clusterChangeSize: clusterChangeSize,
		selectionLatency:  selectionLatency,
		placementFailures: placementFailures,
	}, nil
}

// EnsembleCreated implements placement.Reporter.
func (r *Reporter) EnsembleCreated(ensemble []string, regions []string, elapsed time.Duration) {
	ctx, span := r.tracer.Start(context.Background(), "placement.newEnsemble")
	defer span.End()

	attrs := metric.WithAttributes(
		attribute.String(regionsKey, strings.Join(regions, ",")),
		attribute.Int("placement.ensemble_size", len(ensemble)),
	)
	r.ensemblesCreated.Add(ctx, 1, attrs)
	r.selectionLatency.Record(ctx, elapsed.Seconds()*1000, attrs)

	span.SetAttributes(
		attribute.Int("placement.ensemble_size", len(ensemble)),
		attribute.Int("placement.region_count", len(regions)),
	)
}

// BookieReplaced implements placement.Reporter.
func (r *Reporter) BookieReplaced(oldAddr, newAddr string, elapsed time.Duration) {
	ctx, span := r.tracer.Start(context.Background(), "placement.replaceBookie")
	defer span.End()

	r.bookiesReplaced.Add(ctx, 1)
	r.selectionLatency.Record(ctx, elapsed.Seconds()*1000)

	span.SetAttributes(
		attribute.String("placement.old_addr", oldAddr),
		attribute.String("placement.new_addr", newAddr),
	)
}

// ClusterChanged implements placement.Reporter.
func (r *Reporter) ClusterChanged(writable, readOnly int) {
	r.clusterChangeSize.Add(context.Background(), int64(writable+readOnly))
}

// PlacementFailed implements placement.Reporter.
func (r *Reporter) PlacementFailed(op string, err error) {
	r.placementFailures.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("placement.operation", op),
		attribute.String("placement.error", err.Error()),
	))
}
