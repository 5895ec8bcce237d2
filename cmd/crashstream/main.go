// Command crashstream streams a collision CSV file to the collection service
// over a single StreamCollisions call.
//
// All settings come from crashstream.yaml, a .env file or CRASHSTREAM_*
// environment variables, for example:
//
//	CRASHSTREAM_INGEST_SOURCE=collisions.csv CRASHSTREAM_GRPC_HOST=collector crashstream
package main

import (
	"context"
	"os"

	"github.com/kbukum/crashstream/bootstrap"
	"github.com/kbukum/crashstream/config"
	"github.com/kbukum/crashstream/errors"
	"github.com/kbukum/crashstream/grpc/client"
	"github.com/kbukum/crashstream/ingest"
	"github.com/kbukum/crashstream/logger"
	"github.com/kbukum/crashstream/observability"
)

func main() {
	if err := run(context.Background()); err != nil {
		logger.NewDefault(serviceName).Error("crashstream failed", failureFields(err))
		os.Exit(1)
	}
}

// failureFields flattens err into log fields: its code plus any details such
// as the transfer id, without overwriting the standard keys.
func failureFields(err error) map[string]interface{} {
	appErr := errors.Wrap(err)
	fields := logger.ErrorFields("run", appErr)
	fields[logger.FieldStatus] = string(appErr.Code)
	for k, v := range appErr.Details {
		if _, taken := fields[k]; !taken {
			fields[k] = v
		}
	}
	return fields
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, config.WithEnvPrefix("CRASHSTREAM")); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(observability.NewTelemetry(cfg.Telemetry, app.Logger)); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		return transfer(ctx, &cfg, app.Logger)
	})
}

func transfer(ctx context.Context, cfg *Config, log *logger.Logger) error {
	metrics, err := observability.NewTransferMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		return err
	}

	factory := client.NewDefaultConnectionFactory(cfg.GRPC, log.WithComponent("grpc"))
	ing := ingest.New(factory, ingest.Options{
		Source:         cfg.Ingest.Options(),
		ConnectTimeout: cfg.GRPC.ConnectTimeout,
		Service:        cfg.GRPC.Name,
		Metrics:        metrics,
		Logger:         log,
	})

	res, err := ing.Stream(ctx, cfg.Ingest.Source)
	if err != nil {
		return err
	}
	log.Info("Collisions delivered", logger.Fields(
		logger.FieldTransferID, res.TransferID,
		logger.FieldRecordsSent, res.RecordsSent,
		logger.FieldRowsDropped, res.RowsDropped,
	))
	return nil
}
