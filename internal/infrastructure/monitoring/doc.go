/*
Package monitoring provides Prometheus metrics for the reader service.

# Overview

Every collector lives on a private registry owned by Metrics, so several
instances can coexist in one process (tests, embedded servers). A nil
*Metrics records nothing.

# Metrics

- HTTP request metrics (latency, throughput, size) via Middleware
- Document loads via Timer ("loader", "load")
- Surface pool size, creations and collections
- Bridge envelopes delivered by kind and dropped by reason
- Emissions suppressed by content-equality dedup
- Capability invocations, navigation ops, gesture outcomes
- Sessions and WebSocket connections

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "loader", "load")
	doc, err := loader.Load(ctx, uri)
	timer.Observe(err)
*/
package monitoring
