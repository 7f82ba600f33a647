package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func hasAttr(attrs []attribute.KeyValue, kv attribute.KeyValue) bool {
	for _, a := range attrs {
		if a == kv {
			return true
		}
	}
	return false
}

func TestSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background())

	_, span := StartUserSpan(context.Background(), "StreakService.RecordActivity", 7)
	EndWithError(span, errors.New("storage unavailable"))

	_, span = StartUserSpan(context.Background(), "QueryService.GetStreak", 7)
	EndWithError(span, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	spans := sr.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "StreakService.RecordActivity", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.True(t, hasAttr(spans[0].Attributes(), attribute.Int64("user.id", 7)))

	assert.Equal(t, codes.Unset, spans[1].Status().Code)

	assert.Equal(t, "GET /api/health", spans[2].Name())
	assert.Equal(t, codes.Error, spans[2].Status().Code)
	assert.True(t, hasAttr(spans[2].Attributes(), attribute.Int("http.status_code", http.StatusServiceUnavailable)))
}
