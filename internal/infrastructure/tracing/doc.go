/*
Package tracing provides lightweight request tracing backed by structured logs.

Spans carry a trace id and parent span id through context.Context and over
HTTP via the X-Trace-ID and X-Span-ID headers. Finished spans are buffered
and logged by a single collector goroutine; a full buffer drops spans rather
than blocking callers.

# Usage

	tracer := tracing.New("swipereader", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "document.load")
	defer tracer.End(span)
	tracing.Inject(ctx, req.Header)
*/
package tracing
