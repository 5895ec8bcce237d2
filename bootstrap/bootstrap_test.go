package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/crashstream/component"
	"github.com/kbukum/crashstream/config"
	"github.com/kbukum/crashstream/logger"
)

// testConfig is a minimal config that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "crashstream", Version: "1.0.0"}}
	opts = append([]Option{WithLogger(logger.NewNop())}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "crashstream" || app.Version != "1.0.0" {
		t.Errorf("name/version = %q/%q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil {
		t.Error("expected registry and logger")
	}
	// Defaults were applied to the typed config.
	if app.Cfg.Environment != "development" {
		t.Errorf("expected default environment, got %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != defaultGracefulTimeout {
		t.Errorf("gracefulTimeout = %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(&testConfig{})
	if err == nil || !strings.Contains(err.Error(), "name") {
		t.Errorf("expected error for missing name, got %v", err)
	}
}

func TestNewAppBuildsLoggerFromConfig(t *testing.T) {
	prev := logger.GetGlobalLogger()
	defer logger.SetGlobalLogger(prev)

	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "crashstream"}}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetGlobalLogger() != app.Logger {
		t.Error("config-built logger should become the global logger")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(30*time.Second))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("telemetry")); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterComponent(healthy("telemetry")); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  component.HealthStatus
		wantErr bool
	}{
		{"healthy", component.StatusHealthy, false},
		{"unhealthy", component.StatusUnhealthy, true},
		{"degraded", component.StatusDegraded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			_ = app.RegisterComponent(&mockComponent{
				name:   "collector",
				health: component.Health{Name: "collector", Status: tt.status, Message: "probe"},
			})
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadyCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := newTestApp(t).ReadyCheck(context.Background()); err != nil {
		t.Errorf("empty registry should be ready, got %v", err)
	}
}

func TestRunTaskSuccess(t *testing.T) {
	app := newTestApp(t)
	c := healthy("telemetry")
	_ = app.RegisterComponent(c)

	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		if !c.started {
			t.Error("component should be started before the task runs")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if !ran || !c.stopped {
		t.Errorf("ran = %v, stopped = %v", ran, c.stopped)
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	c := healthy("telemetry")
	_ = app.RegisterComponent(c)

	taskErr := errors.New("stream failed")
	err := app.RunTask(context.Background(), func(ctx context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("expected task error, got %v", err)
	}
	if !c.stopped {
		t.Error("components must be stopped after a failed task")
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := app.RunTask(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunTaskComponentStartError(t *testing.T) {
	app := newTestApp(t)
	first := healthy("telemetry")
	broken := &mockComponent{name: "collector", startErr: errors.New("port in use")}
	_ = app.RegisterComponent(first)
	_ = app.RegisterComponent(broken)

	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "port in use") {
		t.Errorf("expected start error, got %v", err)
	}
	if ran {
		t.Error("task must not run when a component fails to start")
	}
	if !first.stopped {
		t.Error("started components should be stopped after a failed start")
	}
}

func TestRunTaskWithComponentStopError(t *testing.T) {
	app := newTestApp(t)
	stopErr := errors.New("flush failed")
	_ = app.RegisterComponent(&mockComponent{
		name:    "telemetry",
		stopErr: stopErr,
		health:  component.Health{Name: "telemetry", Status: component.StatusHealthy},
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, stopErr) {
		t.Errorf("expected stop error when the task succeeds, got %v", err)
	}

	taskErr := errors.New("stream failed")
	app = newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "telemetry", stopErr: stopErr})
	err = app.RunTask(context.Background(), func(ctx context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("task error should win over stop error, got %v", err)
	}
}
