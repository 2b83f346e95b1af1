package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxRequestIDLength caps the request ID taken from headers so oversized
// values cannot inflate span payloads.
const maxRequestIDLength = 128

// TracingConfig controls the request tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns OpenTelemetry tracing middleware. Each request gets a
// span named after its route pattern. Place TracingAttributes after it in
// the chain to enrich the span with request and scheme identity.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributes returns middleware that stamps the active span with the
// request ID and the strata scheme the caller is operating on. Must run
// after Tracing and RequestID; the span is still live at that point.
func TracingAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := spanRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if schemeID := spanSchemeID(c); schemeID != "" {
		span.SetAttributes(attribute.String("scheme_id", schemeID))
	}
}

// spanRequestID prefers the ID assigned by the RequestID middleware and
// falls back to the raw header, truncated.
func spanRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok && id != "" {
			return id
		}
	}
	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > maxRequestIDLength {
		return headerID[:maxRequestIDLength]
	}
	return headerID
}

// spanSchemeID reads the scheme header. Only well-formed UUIDs make it onto
// the span; anything else is caller garbage and is dropped.
func spanSchemeID(c *gin.Context) string {
	header := c.GetHeader("X-Scheme-ID")
	if header == "" {
		return ""
	}
	if _, err := uuid.Parse(header); err != nil {
		return ""
	}
	return header
}
