// Package observability provides OpenTelemetry tracing and metrics for
// collision transfers.
//
// Telemetry is a component that installs OTLP/HTTP tracer and meter
// providers as the otel globals when enabled, and leaves the no-op globals in
// place otherwise:
//
//	tel := observability.NewTelemetry(cfg, log)
//	registry.Register(tel)
//
// Transfers are traced with StartSpan and counted with TransferMetrics:
//
//	metrics, err := observability.NewTransferMetrics(observability.Meter(observability.InstrumentationName))
//	ctx, span := observability.StartSpan(ctx, observability.SpanTransfer)
//	defer span.End()
//	metrics.RecordSent(ctx)
package observability
