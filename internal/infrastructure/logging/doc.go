// Package logging builds the zap loggers used across the service.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Components receive the embedded *zap.Logger and name themselves:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	pool := surface.NewPool(driver, surface.Options{Logger: logger.Logger})
//	logger.Info("Server starting", zap.String("addr", addr))
package logging
