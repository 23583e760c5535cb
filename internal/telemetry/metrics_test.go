package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	m := initMetrics()
	ctx := context.Background()

	m.RecordCatalogueBuild(ctx, "heading", 12, nil)
	m.RecordCatalogueBuild(ctx, "heading", 0, errors.New("boom"))
	m.RecordPluginInstall(ctx, time.Now(), "")
	m.RecordPluginInstall(ctx, time.Now(), "signature_verified")
	m.RecordKeyFetch(ctx, time.Now(), nil)
	m.RecordFunctionValidation(ctx, "__ANNUAL_AMOUNT__", true)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = true
	}

	for _, name := range []string{
		"formulary.catalogue.builds.total",
		"formulary.catalogue.errors.total",
		"formulary.catalogue.size",
		"formulary.plugins.installs.total",
		"formulary.plugins.rejections.total",
		"formulary.plugins.install.duration",
		"formulary.plugins.key_fetch.duration",
		"formulary.functions.validations.total",
	} {
		require.True(t, names[name], "missing metric %s", name)
	}
}
