// Package server wires configuration, surfaces, sessions and the HTTP API
// into one process.
//
// Server Lifecycle:
//  1. Load configuration from environment and flags
//  2. Build the logger, metrics and extraction rules
//  3. Start the surface driver (sandbox loader or headless Chrome)
//  4. Create the session manager
//  5. Mount middleware and routes
//  6. Serve HTTP and watch the rules file under one errgroup
//  7. Shut down gracefully when the context ends
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
package server
