// Package config provides 12-factor configuration for the swipe reader.
//
// Configuration is loaded from environment variables with defaults. CLI
// flags override the server address.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//   - Surface: Driver selection, site origin, browser and loader tuning
//   - Extraction: Debounce window and rules file
//   - Gesture: Edge swipe thresholds
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Serving %s on %s\n", cfg.Surface.Origin, cfg.Server.Addr())
package config
