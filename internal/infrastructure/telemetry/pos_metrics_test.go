package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/gpms/backend/internal/infrastructure/telemetry"
)

func TestNewPOSMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewPOSMetrics(nil)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Equal(t, "NewPOSMetrics: meter cannot be nil", err.Error())
}

func TestPOSMetrics_NilReceiver(t *testing.T) {
	var m *telemetry.POSMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordAllocation(ctx, "unit", telemetry.ResultSuccess, time.Millisecond)
		m.RecordIntegrityIssues(ctx, "missing_barcodes", 2)
		m.RecordViewCacheLookup(ctx, true)
	})
}

func TestPOSMetrics_Record(t *testing.T) {
	reader, provider := newManualMeter(t)
	ctx := context.Background()

	m, err := telemetry.NewPOSMetrics(provider.Meter("pos"))
	require.NoError(t, err)

	m.RecordAllocation(ctx, "unit", telemetry.ResultSuccess, time.Millisecond)
	m.RecordAllocation(ctx, "unit", telemetry.ResultSuccess, time.Millisecond)
	m.RecordAllocation(ctx, "unit", telemetry.ResultDuplicate, time.Millisecond)
	m.RecordIntegrityIssues(ctx, "orphaned_units", 4)
	m.RecordViewCacheLookup(ctx, false)

	metrics := collect(t, reader)

	allocations, ok := metrics["pos_barcode_allocations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byResult := map[string]int64{}
	for _, dp := range allocations.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrResult)
		byResult[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(2), byResult[telemetry.ResultSuccess])
	assert.Equal(t, int64(1), byResult[telemetry.ResultDuplicate])

	issues, ok := metrics["pos_integrity_issues"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, issues.DataPoints, 1)
	assert.Equal(t, int64(4), issues.DataPoints[0].Value)

	assert.Contains(t, metrics, "pos_barcode_allocation_duration_seconds")
	assert.Contains(t, metrics, "pos_view_cache_lookups_total")
}
