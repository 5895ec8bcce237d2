package component

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(nil)
	if r == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry(nil)
	c := &mockComponent{name: "telemetry", health: Health{Name: "telemetry", Status: StatusHealthy}}

	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	c := &mockComponent{name: "telemetry"}
	r.Register(c)

	err := r.Register(&mockComponent{name: "telemetry"})
	if err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry(nil)
	c := &mockComponent{name: "telemetry"}
	r.Register(c)

	got := r.Get("telemetry")
	if got == nil {
		t.Fatal("expected to get registered component")
	}
	if got.Name() != "telemetry" {
		t.Errorf("expected telemetry, got %q", got.Name())
	}
}

func TestGetNotFound(t *testing.T) {
	r := NewRegistry(nil)
	got := r.Get("missing")
	if got != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestStartAll(t *testing.T) {
	r := NewRegistry(nil)
	order := []string{}

	r.Register(&mockComponent{
		name: "telemetry", startOrder: &order,
		health: Health{Name: "telemetry", Status: StatusHealthy},
	})
	r.Register(&mockComponent{
		name: "collector", startOrder: &order,
		health: Health{Name: "collector", Status: StatusHealthy},
	})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}

	if len(order) != 2 {
		t.Fatalf("expected 2 starts, got %d", len(order))
	}
	if order[0] != "telemetry" || order[1] != "collector" {
		t.Errorf("expected start order [telemetry, collector], got %v", order)
	}
}

func TestStartAllError(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockComponent{name: "telemetry", startErr: fmt.Errorf("connection refused")})

	err := r.StartAll(context.Background())
	if err == nil {
		t.Error("expected error from StartAll")
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	r := NewRegistry(nil)
	order := []string{}

	r.Register(&mockComponent{name: "telemetry", stopOrder: &order, health: Health{Name: "telemetry", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "collector", stopOrder: &order, health: Health{Name: "collector", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "metrics", stopOrder: &order, health: Health{Name: "metrics", Status: StatusHealthy}})

	r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if len(order) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(order))
	}
	if order[0] != "metrics" || order[1] != "collector" || order[2] != "telemetry" {
		t.Errorf("expected reverse stop order [metrics, collector, telemetry], got %v", order)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := NewRegistry(nil)
	order := []string{}
	r.Register(&mockComponent{name: "telemetry", stopOrder: &order})

	// Don't start, then stop
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected 0 stops for unstarted components, got %d", len(order))
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockComponent{
		name: "telemetry", stopErr: fmt.Errorf("stop failed"),
		health: Health{Name: "telemetry", Status: StatusHealthy},
	})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil {
		t.Error("expected error from StopAll")
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockComponent{
		name:   "telemetry",
		health: Health{Name: "telemetry", Status: StatusHealthy, Message: "connected"},
	})
	r.Register(&mockComponent{
		name:   "collector",
		health: Health{Name: "collector", Status: StatusUnhealthy, Message: "timeout"},
	})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy {
		t.Errorf("expected telemetry healthy, got %s", results[0].Status)
	}
	if results[1].Status != StatusUnhealthy {
		t.Errorf("expected collector unhealthy, got %s", results[1].Status)
	}
}

func TestHealthStatusConstants(t *testing.T) {
	if StatusHealthy != "healthy" {
		t.Errorf("expected 'healthy', got %q", StatusHealthy)
	}
	if StatusUnhealthy != "unhealthy" {
		t.Errorf("expected 'unhealthy', got %q", StatusUnhealthy)
	}
	if StatusDegraded != "degraded" {
		t.Errorf("expected 'degraded', got %q", StatusDegraded)
	}
}

func TestStartAllPartialFailureThenStop(t *testing.T) {
	r := NewRegistry(nil)
	stops := []string{}
	r.Register(&mockComponent{name: "telemetry", stopOrder: &stops})
	r.Register(&mockComponent{name: "collector", startErr: fmt.Errorf("listen failed"), stopOrder: &stops})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected error from StartAll")
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(stops) != 1 || stops[0] != "telemetry" {
		t.Errorf("only the started component should be stopped, got %v", stops)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := NewRegistry(nil)
	first := fmt.Errorf("flush failed")
	second := fmt.Errorf("close failed")
	r.Register(&mockComponent{name: "telemetry", stopErr: first})
	r.Register(&mockComponent{name: "collector", stopErr: second})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("StopAll error should wrap both failures, got %v", err)
	}
}
