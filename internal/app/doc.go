// Package app wires configuration, telemetry, the provider client and the
// stock service into one Application shared by the CLI and the HTTP server.
//
// # Initialization Flow
//
//	1. Configuration is loaded by the caller (config.Load)
//	2. OpenTelemetry providers are created from the telemetry section
//	3. The temp file manager, provider client and services are built
//	4. The chi router and http.Server are configured
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger, app.Options{APIKey: key})
//	if err != nil {
//	    return err
//	}
//	defer application.Close(ctx)
//	catalog, err := application.StockService.ListSymbols(ctx)
//
// Serving the HTTP API instead:
//
//	err := application.Run(ctx)
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. On shutdown active requests are drained,
// leftover downloads are removed, the metrics textfile is written when
// configured and telemetry is flushed.
//
// The package never calls os.Exit; errors are returned to the caller.
package app
