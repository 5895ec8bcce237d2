// Package bootstrap runs a one-shot crashstream task inside a uniform
// lifecycle: validated config, a logger built from it, registered components
// started before the task and stopped after it, and SIGINT/SIGTERM turned
// into cancellation of the task context.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(observability.NewTelemetry(cfg.Telemetry, app.Logger))
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := ingestor.Stream(ctx, cfg.Ingest.Source)
//	    return err
//	})
package bootstrap
