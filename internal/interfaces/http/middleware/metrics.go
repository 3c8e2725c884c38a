package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hospital-erp/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// httpMetrics holds the HTTP server instruments.
type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(
		meter,
		"http_server_request_total",
		"Total number of HTTP requests",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	// exports can be large; the top bucket covers a year of transactions
	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Boundaries:  []float64{100, 1000, 10000, 100000, 1000000, 10000000},
	})
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics returns a middleware that records request count, latency and
// response size per route. A nil or disabled provider yields a no-op.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if mp == nil || !mp.IsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return HTTPMetricsWithMeter(mp.Meter("http.server"))
}

// HTTPMetricsWithMeter returns HTTP metrics middleware on an existing meter.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		metrics.activeRequests.Add(ctx, 1)
		c.Next()
		metrics.activeRequests.Add(ctx, -1)

		recordHTTPMetrics(ctx, metrics, c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start), c.Writer.Size())
	}
}

func recordHTTPMetrics(
	ctx context.Context,
	metrics *httpMetrics,
	method, route string,
	statusCode int,
	duration time.Duration,
	responseSize int,
) {
	base := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPRoute.String(route),
	}
	metrics.requestTotal.Inc(ctx, append(base, telemetry.AttrHTTPStatusCode.Int(statusCode))...)
	metrics.requestDuration.RecordDuration(ctx, duration, base...)
	if responseSize > 0 {
		metrics.responseSize.Record(ctx, float64(responseSize), base...)
	}
}

// routePattern returns the matched route instead of the raw path to keep
// label cardinality bounded
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
