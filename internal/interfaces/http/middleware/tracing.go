package middleware

import (
	"net/http"

	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds header-supplied request ids copied into spans
const MaxRequestIDLength = 128

// Tracing starts a server span per request using the matched route pattern.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// SpanEnricher adds identity attributes once the JWT middleware has run,
// stamps the trace id on the request logger and marks the span failed for
// error responses.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(spanAttributes(c)...)
		}
		c.Request = c.Request.WithContext(logger.WithTraceContext(c.Request.Context()))

		c.Next()

		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		span.SetStatus(codes.Error, statusDescription(status))
	}
}

func spanAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := requestID(c); id != "" {
		attrs = append(attrs, attribute.String("request_id", id))
	}
	if userID := c.GetString(JWTUserIDKey); userID != "" {
		attrs = append(attrs, attribute.String("user_id", userID))
	}
	if flat := c.GetString(JWTFlatNumberKey); flat != "" {
		attrs = append(attrs, attribute.String("flat_number", flat))
	}
	if c.GetBool(JWTIsAdminKey) {
		attrs = append(attrs, attribute.Bool("is_admin", true))
	}
	return attrs
}

func requestID(c *gin.Context) string {
	if id := c.GetString(RequestIDHeader); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

func statusDescription(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal Server Error"
	case status == http.StatusUnauthorized:
		return "Unauthorized"
	case status == http.StatusForbidden:
		return "Forbidden"
	case status == http.StatusNotFound:
		return "Not Found"
	default:
		return "Client Error"
	}
}
