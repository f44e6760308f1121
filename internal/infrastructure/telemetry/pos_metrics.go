package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Result labels for allocation metrics.
const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultError     = "error"
)

// POSMetrics records barcode allocation, integrity and view cache activity.
// A nil *POSMetrics is valid and records nothing.
type POSMetrics struct {
	allocations        *Counter
	allocationDuration *Histogram
	integrityIssues    *Gauge
	viewCacheLookups   *Counter
}

// NewPOSMetrics registers the instruments on meter.
func NewPOSMetrics(meter metric.Meter) (*POSMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &POSMetrics{}
	var err error

	m.allocations, err = NewCounter(meter,
		"pos_barcode_allocations_total",
		"Barcode allocations by type and result",
		"{barcodes}",
	)
	if err != nil {
		return nil, err
	}

	m.allocationDuration, err = NewHistogram(meter,
		"pos_barcode_allocation_duration_seconds",
		"Time spent in the counter-and-register transaction",
		"s",
		SmallDurationBuckets...,
	)
	if err != nil {
		return nil, err
	}

	m.integrityIssues, err = NewGauge(meter,
		"pos_integrity_issues",
		"Issues found by the last integrity validation, by kind",
		"{issues}",
	)
	if err != nil {
		return nil, err
	}

	m.viewCacheLookups, err = NewCounter(meter,
		"pos_view_cache_lookups_total",
		"Product view cache lookups by result",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordAllocation counts one allocation attempt and its duration.
func (m *POSMetrics) RecordAllocation(ctx context.Context, barcodeType, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.allocations.Inc(ctx, AttrBarcodeType.String(barcodeType), AttrResult.String(result))
	m.allocationDuration.RecordDuration(ctx, d, AttrBarcodeType.String(barcodeType))
}

// RecordIntegrityIssues records the issue count for one kind.
func (m *POSMetrics) RecordIntegrityIssues(ctx context.Context, kind string, count int) {
	if m == nil {
		return
	}
	m.integrityIssues.Record(ctx, int64(count), AttrIssueKind.String(kind))
}

// RecordViewCacheLookup counts a cache hit or miss.
func (m *POSMetrics) RecordViewCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.viewCacheLookups.Inc(ctx, AttrCacheResult.String(result))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPOSMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
