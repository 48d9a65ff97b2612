// Package http provides the REST handlers presentation clients use to drive
// a swipe navigator.
//
// Endpoints:
//   - Health: / and /health
//   - Sessions: /sessions, /sessions/:id
//   - Navigation: /sessions/:id/push, /replace, /reload, /forward, /backward
//   - Gestures: /sessions/:id/gesture, /sessions/:id/gesture/settle
//   - Surfaces: /sessions/:id/surfaces/:key, /sessions/:id/surfaces/:key/invoke
//   - Metrics: /metrics/json
//
// Guarded no-ops (backward at the root, stale capabilities) succeed with
// "moved": false or 202 rather than failing. Unknown sessions and surfaces
// are 404, malformed input is 400.
//
// Example Usage:
//
//	handlers := http.NewHandlers(manager, metrics, logger)
//	handlers.Register(router)
package http
