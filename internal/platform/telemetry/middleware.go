package telemetry

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotekeeper/telemetry"

	HeaderTraceID = "X-Trace-ID"

	// unmatchedRoute labels requests no route matched, keeping the route
	// attribute bounded when clients probe arbitrary paths.
	unmatchedRoute = "unmatched"
)

type httpMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	duration, errD := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Quote API request duration"),
		metric.WithUnit("s"))
	requests, errR := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Quote API requests served"))
	inFlight, errI := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Quote API requests in flight"))

	if err := errors.Join(errD, errR, errI); err != nil {
		return nil, err
	}

	return &httpMetrics{duration: duration, requests: requests, inFlight: inFlight}, nil
}

func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}

	return unmatchedRoute
}

// Middleware opens the server span through otelgin and records request
// metrics around the rest of the chain. Instrument errors go to the otel
// error handler and leave tracing in place.
func Middleware(serviceName string) gin.HandlerFunc {
	tracing := otelgin.Middleware(serviceName)

	m, err := newHTTPMetrics(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
		return tracing
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		method := attribute.String("http.method", c.Request.Method)
		path := attribute.String("http.route", route(c))

		m.inFlight.Add(ctx, 1, metric.WithAttributes(method, path))
		defer m.inFlight.Add(ctx, -1, metric.WithAttributes(method, path))

		tracing(c)

		done := metric.WithAttributes(method, path, attribute.Int("http.status_code", c.Writer.Status()))
		m.duration.Record(ctx, time.Since(start).Seconds(), done)
		m.requests.Add(ctx, 1, done)
	}
}

// TraceHeader echoes the server span's trace ID in X-Trace-ID so a client
// can quote it when reporting a failed sync or import. Register it after
// Middleware.
func TraceHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		c.Next()
	}
}
