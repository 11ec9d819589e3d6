package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts holds options for creating metrics
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an OTel counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new counter metric on the global meter
func NewCounter(opts MetricOpts) (*Counter, error) {
	counter, err := GetMeter().Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: counter}, nil
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps an OTel histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogramWithBuckets creates a histogram with explicit bucket boundaries
func NewHistogramWithBuckets(opts MetricOpts, boundaries []float64) (*Histogram, error) {
	histogram, err := GetMeter().Float64Histogram(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
		metric.WithExplicitBucketBoundaries(boundaries...),
	)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: histogram}, nil
}

// Record records a value in the histogram
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	if h == nil {
		return
	}
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// ClubMetrics are the application metrics shared by handlers and services
type ClubMetrics struct {
	RegistrationEvaluations *Counter
	ContentMutations        *Counter
	HTTPRequestDuration     *Histogram
	CacheLookups            *Counter
}

var (
	clubMetrics     *ClubMetrics
	clubMetricsOnce sync.Once
)

// Metrics returns the application metrics, creating them on first use.
// Instruments that fail to register stay nil and their methods become no-ops.
func Metrics() *ClubMetrics {
	clubMetricsOnce.Do(func() {
		m := &ClubMetrics{}
		m.RegistrationEvaluations, _ = NewCounter(MetricOpts{
			Name:        "registration_status_evaluations_total",
			Description: "Registration status evaluations by outcome",
			Unit:        "{evaluation}",
		})
		m.ContentMutations, _ = NewCounter(MetricOpts{
			Name:        "content_mutations_total",
			Description: "Admin writes by resource and action",
			Unit:        "{mutation}",
		})
		m.HTTPRequestDuration, _ = NewHistogramWithBuckets(MetricOpts{
			Name:        "http_request_duration_seconds",
			Description: "HTTP request latency",
			Unit:        "s",
		}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})
		m.CacheLookups, _ = NewCounter(MetricOpts{
			Name:        "cache_lookups_total",
			Description: "Event cache lookups by result",
			Unit:        "{lookup}",
		})
		clubMetrics = m
	})
	return clubMetrics
}

// Common attribute keys
const (
	AttrMethod     = "http.method"
	AttrRoute      = "http.route"
	AttrStatusCode = "http.status_code"
	AttrEventID    = "event.id"
	AttrResource   = "content.resource"
	AttrAction     = "content.action"
	AttrOutcome    = "outcome"
)

func MethodAttr(method string) attribute.KeyValue {
	return attribute.String(AttrMethod, method)
}

func RouteAttr(route string) attribute.KeyValue {
	return attribute.String(AttrRoute, route)
}

func StatusCodeAttr(code int) attribute.KeyValue {
	return attribute.Int(AttrStatusCode, code)
}

func EventIDAttr(eventID string) attribute.KeyValue {
	return attribute.String(AttrEventID, eventID)
}

func ResourceAttr(resource string) attribute.KeyValue {
	return attribute.String(AttrResource, resource)
}

func ActionAttr(action string) attribute.KeyValue {
	return attribute.String(AttrAction, action)
}

func OutcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}
