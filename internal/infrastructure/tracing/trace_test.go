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
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestSpansNestUnderTrace(t *testing.T) {
	defer goleak.VerifyNone(t)
	tracer, logs := newObserved(t)

	root, ctx := tracer.StartSpan(context.Background(), "root")
	child, childCtx := tracer.StartSpan(ctx, "child")

	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, SpanIDFrom(childCtx))
	assert.Empty(t, root.ParentID)

	child.SetError(errors.New("boom"))
	tracer.End(child)
	tracer.End(root)
	tracer.Close()

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Span failed", logs.All()[0].Message)
	assert.Equal(t, "Span completed", logs.All()[1].Message)
	assert.Positive(t, root.Duration)
}

func TestNilTracerIsNoop(t *testing.T) {
	var tracer *Tracer
	span, ctx := tracer.StartSpan(context.Background(), "op")
	tracer.End(span)
	tracer.Close()
	assert.NotEmpty(t, TraceIDFrom(ctx))
}

func TestEndAfterCloseDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)
	tracer, _ := newObserved(t)
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	tracer.End(span)
	tracer.Close()
}

func TestInjectExtract(t *testing.T) {
	ctx := WithTrace(context.Background(), "t1", "s1")
	h := http.Header{}
	Inject(ctx, h)

	traceID, spanID := Extract(h)
	assert.Equal(t, TraceID("t1"), traceID)
	assert.Equal(t, SpanID("s1"), spanID)
	assert.Equal(t, "[trace:t1 span:s1]", Format(ctx))
}

func TestHTTPMiddlewareContinuesTrace(t *testing.T) {
	defer goleak.VerifyNone(t)
	gin.SetMode(gin.TestMode)
	tracer, logs := newObserved(t)

	var seen TraceID
	r := gin.New()
	r.Use(HTTPMiddleware(tracer))
	r.GET("/items/:id", func(c *gin.Context) {
		seen = TraceIDFrom(c.Request.Context())
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
	req.Header.Set(TraceHeader, "incoming")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	tracer.Close()

	assert.Equal(t, TraceID("incoming"), seen)
	assert.Equal(t, "incoming", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET /items/:id", fields["operation"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}
