// Package observability provides OpenTelemetry tracing and metrics.
//
// When disabled, the global no-op providers stay installed, so instrumented
// code (the storage facade, the HTTP server) can always call StartSpan and
// record metrics without checking configuration.
//
//	p, err := observability.Init(ctx, cfg.Observability)
//	defer p.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "storage.read")
//	defer span.End()
package observability
