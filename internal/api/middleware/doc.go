// Package middleware provides the gin middleware in front of the
// presentation API.
//
//   - CORS: cross-origin access for presentation clients
//   - RateLimit: per-IP token buckets with idle eviction and exempt paths
//   - RequestID: request ids on the context, response header and logs
//
// Example Usage:
//
//	router.Use(middleware.RequestID(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
