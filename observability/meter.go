package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/crashstream/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider and installs it as
// the global provider. The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// TransferMetrics holds the instruments recorded during a transfer.
// A nil *TransferMetrics records nothing.
type TransferMetrics struct {
	rowsRead     metric.Int64Counter
	recordsSent  metric.Int64Counter
	rowsDropped  metric.Int64Counter
	transfers    metric.Int64Counter
	transferTime metric.Float64Histogram
}

// NewTransferMetrics creates transfer instruments on the given meter.
func NewTransferMetrics(meter metric.Meter) (*TransferMetrics, error) {
	rowsRead, err := meter.Int64Counter("crashstream.rows.read",
		metric.WithDescription("Source rows read"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rows.read counter: %w", err)
	}

	recordsSent, err := meter.Int64Counter("crashstream.records.sent",
		metric.WithDescription("Records handed to the outbound stream"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating records.sent counter: %w", err)
	}

	rowsDropped, err := meter.Int64Counter("crashstream.rows.dropped",
		metric.WithDescription("Rows rejected by the decoder, by column"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rows.dropped counter: %w", err)
	}

	transfers, err := meter.Int64Counter("crashstream.transfers",
		metric.WithDescription("Completed transfers by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transfers counter: %w", err)
	}

	transferTime, err := meter.Float64Histogram("crashstream.transfer.duration",
		metric.WithDescription("Duration of transfers in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transfer.duration histogram: %w", err)
	}

	return &TransferMetrics{
		rowsRead:     rowsRead,
		recordsSent:  recordsSent,
		rowsDropped:  rowsDropped,
		transfers:    transfers,
		transferTime: transferTime,
	}, nil
}

// RecordRead counts one source row.
func (m *TransferMetrics) RecordRead(ctx context.Context) {
	if m == nil {
		return
	}
	m.rowsRead.Add(ctx, 1)
}

// RecordSent counts one record handed to the stream.
func (m *TransferMetrics) RecordSent(ctx context.Context) {
	if m == nil {
		return
	}
	m.recordsSent.Add(ctx, 1)
}

// RecordDropped counts one rejected row, attributed to the failing column.
func (m *TransferMetrics) RecordDropped(ctx context.Context, field string) {
	if m == nil {
		return
	}
	m.rowsDropped.Add(ctx, 1, metric.WithAttributes(AttrField.String(field)))
}

// RecordTransfer records the outcome and duration of a finished transfer.
func (m *TransferMetrics) RecordTransfer(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrStatus.String(status))
	m.transfers.Add(ctx, 1, attrs)
	m.transferTime.Record(ctx, duration.Seconds(), attrs)
}
