package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request, continuing any trace carried in
// the incoming headers.
func Tracing(service string) gin.HandlerFunc {
	tracer := otel.Tracer(service)

	return func(c *gin.Context) {
		r := c.Request
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := c.FullPath()
		if route == "" {
			route = r.URL.Path
		}
		ctx, span := tracer.Start(ctx, r.Method+" "+route,
			trace.WithAttributes(
				semconv.ServiceName(service),
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRoute(route),
			),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		c.Request = r.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= 500 {
			span.SetStatus(codes.Error, "request failed")
		}
	}
}
