package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/formulary"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Catalogue metrics
	CatalogueBuildsTotal metric.Int64Counter
	CatalogueErrorsTotal metric.Int64Counter
	CatalogueSize        metric.Int64Histogram

	// Plugin trust pipeline metrics
	PluginInstallsTotal   metric.Int64Counter
	PluginRejectionsTotal metric.Int64Counter
	PluginInstallDuration metric.Float64Histogram
	KeyFetchDuration      metric.Float64Histogram

	// Argument validation metrics
	FunctionValidationsTotal metric.Int64Counter
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

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.CatalogueBuildsTotal, _ = meter.Int64Counter(
		"formulary.catalogue.builds.total",
		metric.WithDescription("Total number of variable catalogue builds"),
		metric.WithUnit("{build}"),
	)

	m.CatalogueErrorsTotal, _ = meter.Int64Counter(
		"formulary.catalogue.errors.total",
		metric.WithDescription("Total number of failed variable catalogue builds"),
		metric.WithUnit("{error}"),
	)

	m.CatalogueSize, _ = meter.Int64Histogram(
		"formulary.catalogue.size",
		metric.WithDescription("Number of tokens in a built catalogue"),
		metric.WithUnit("{token}"),
	)

	m.PluginInstallsTotal, _ = meter.Int64Counter(
		"formulary.plugins.installs.total",
		metric.WithDescription("Total number of plugins installed"),
		metric.WithUnit("{plugin}"),
	)

	m.PluginRejectionsTotal, _ = meter.Int64Counter(
		"formulary.plugins.rejections.total",
		metric.WithDescription("Total number of plugin packages rejected, by stage"),
		metric.WithUnit("{plugin}"),
	)

	m.PluginInstallDuration, _ = meter.Float64Histogram(
		"formulary.plugins.install.duration",
		metric.WithDescription("Duration of plugin trust pipeline runs"),
		metric.WithUnit("ms"),
	)

	m.KeyFetchDuration, _ = meter.Float64Histogram(
		"formulary.plugins.key_fetch.duration",
		metric.WithDescription("Duration of trusted key lookups"),
		metric.WithUnit("ms"),
	)

	m.FunctionValidationsTotal, _ = meter.Int64Counter(
		"formulary.functions.validations.total",
		metric.WithDescription("Total number of function call validations"),
		metric.WithUnit("{call}"),
	)

	return m
}

// RecordCatalogueBuild records the outcome of a catalogue build.
func (m *Metrics) RecordCatalogueBuild(ctx context.Context, kind string, size int, err error) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.CatalogueBuildsTotal.Add(ctx, 1, attrs)
	if err != nil {
		m.CatalogueErrorsTotal.Add(ctx, 1, attrs)
		return
	}
	m.CatalogueSize.Record(ctx, int64(size), attrs)
}

// RecordPluginInstall records the outcome of a trust pipeline run. stage is
// the stage that failed, empty on success.
func (m *Metrics) RecordPluginInstall(ctx context.Context, started time.Time, stage string) {
	elapsed := float64(time.Since(started).Microseconds()) / 1000
	if stage == "" {
		m.PluginInstallsTotal.Add(ctx, 1)
		m.PluginInstallDuration.Record(ctx, elapsed, metric.WithAttributes(attribute.String("outcome", "installed")))
		return
	}
	m.PluginRejectionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	m.PluginInstallDuration.Record(ctx, elapsed, metric.WithAttributes(attribute.String("outcome", "rejected")))
}

// RecordKeyFetch records the latency of a trusted key lookup.
func (m *Metrics) RecordKeyFetch(ctx context.Context, started time.Time, err error) {
	m.KeyFetchDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000,
		metric.WithAttributes(attribute.Bool("error", err != nil)))
}

// RecordFunctionValidation records a function call validation.
func (m *Metrics) RecordFunctionValidation(ctx context.Context, function string, valid bool) {
	m.FunctionValidationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("function", function),
		attribute.Bool("valid", valid),
	))
}
