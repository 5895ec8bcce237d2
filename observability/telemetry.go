package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/crashstream/component"
	"github.com/kbukum/crashstream/logger"
	"github.com/kbukum/crashstream/validation"
)

// Config is the telemetry configuration section.
type Config struct {
	// Enabled turns on OTLP export. When false the otel no-op globals stay in place.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling ratio (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// Service metadata, filled from the service section.
	ServiceName    string `yaml:"-" mapstructure:"-"`
	ServiceVersion string `yaml:"-" mapstructure:"-"`
	Environment    string `yaml:"-" mapstructure:"-"`
}

const (
	defaultEndpoint   = "localhost:4318"
	defaultSampleRate = 1.0
	defaultInterval   = 15 * time.Second
)

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.SampleRate == 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.Interval == 0 {
		c.Interval = defaultInterval
	}
}

// Validate checks the section. Disabled telemetry is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.New().
		Required("telemetry.endpoint", c.Endpoint).
		RangeFloat("telemetry.sample_rate", c.SampleRate, 0, 1).
		Custom(c.Interval >= 0, "telemetry.interval", "must not be negative").
		Err()
}

// Tracer returns the tracer settings derived from the section.
func (c Config) Tracer() TracerConfig {
	return TracerConfig{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Environment:    c.Environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		SampleRate:     c.SampleRate,
	}
}

// Meter returns the meter settings derived from the section.
func (c Config) Meter() MeterConfig {
	return MeterConfig{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Environment:    c.Environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		Interval:       c.Interval,
	}
}

// Telemetry owns the tracer and meter providers for the process.
type Telemetry struct {
	cfg Config
	log *logger.Logger

	mu sync.Mutex
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Component = (*Telemetry)(nil)

// NewTelemetry creates a stopped telemetry component.
func NewTelemetry(cfg Config, log *logger.Logger) *Telemetry {
	cfg.ApplyDefaults()
	return &Telemetry{cfg: cfg, log: log.WithComponent("telemetry")}
}

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Start installs the providers when telemetry is enabled.
func (t *Telemetry) Start(ctx context.Context) error {
	if !t.cfg.Enabled {
		t.log.Debug("telemetry disabled")
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tp, err := InitTracer(ctx, t.cfg.Tracer(), t.log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	mp, err := InitMeter(ctx, t.cfg.Meter(), t.log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: %w", err)
	}
	t.tp, t.mp = tp, mp
	return nil
}

// Stop flushes and shuts the providers down.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	tp, mp := t.tp, t.mp
	t.tp, t.mp = nil, nil
	t.mu.Unlock()

	var errs []error
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (t *Telemetry) Health(_ context.Context) component.Health {
	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	if !t.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}
