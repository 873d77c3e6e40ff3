package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	bookingx "github.com/CharlesKZhang/Reservation-Bot/agent/booking"
	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
)

func newTestRegistry(t *testing.T, opts ...RegistryOption) *Registry {
	t.Helper()
	store := bookingx.NewMemoryStore(bookingx.Seed{
		"2024-08-01": {
			"19:00": {2: true, 4: true},
			"19:30": {2: false, 4: true},
			"20:00": {2: true, 4: false},
		},
	})
	registry, err := BuildRegistry(store, opts...)
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	return registry
}

func TestBuildRegistryInfos(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	infos := registry.Infos()
	if len(infos) != 2 {
		t.Fatalf("expected 2 tool infos, got %d", len(infos))
	}
	if infos[0].Name != ToolCheckAvailability {
		t.Fatalf("unexpected first tool: %s", infos[0].Name)
	}
	if infos[1].Name != ToolBookTable {
		t.Fatalf("unexpected second tool: %s", infos[1].Name)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	info := &schema.ToolInfo{Name: "demo"}
	handler := func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }

	if err := registry.Register(info, handler); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(info, handler); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation on duplicate, got %v", err)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	results, err := registry.Execute(context.Background(), []contractx.ToolCall{
		{ID: "call_1", Name: "order_pizza", Arguments: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].CallID != "call_1" {
		t.Fatalf("result must echo call id, got %q", results[0].CallID)
	}
	if results[0].Error != "Function order_pizza not found" {
		t.Fatalf("unexpected error payload: %q", results[0].Error)
	}
}

func TestExecuteAvailability(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	results, err := registry.Execute(context.Background(), []contractx.ToolCall{
		{
			ID:   "call_1",
			Name: ToolCheckAvailability,
			Arguments: map[string]any{
				"restaurant_name": "Chez Panisse",
				"platform":        "OpenTable",
				"date":            "2024-08-01",
				"time":            "19:30",
				"partySize":       float64(2),
			},
		},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if results[0].Error != "" {
		t.Fatalf("unexpected tool error: %s", results[0].Error)
	}
	res, ok := results[0].Result.(bookingx.AvailabilityResult)
	if !ok {
		t.Fatalf("unexpected result type: %T", results[0].Result)
	}
	if res.Available {
		t.Fatal("expected exact slot unavailable")
	}
	if len(res.Alternates) == 0 {
		t.Fatal("expected nearby alternates")
	}
}

func TestExecuteAvailabilityMissingArgument(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	results, err := registry.Execute(context.Background(), []contractx.ToolCall{
		{ID: "call_1", Name: ToolCheckAvailability, Arguments: map[string]any{"date": "2024-08-01", "time": "19:00"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if results[0].Error != "partySize is required" {
		t.Fatalf("unexpected error payload: %q", results[0].Error)
	}
}

func TestExecuteBookTable(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	args := map[string]any{
		"date":      "2024-08-01",
		"time":      "19:30",
		"partySize": float64(4),
	}

	results, err := registry.Execute(context.Background(), []contractx.ToolCall{
		{ID: "call_1", Name: ToolBookTable, Arguments: args},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	first, ok := results[0].Result.(BookTableOutput)
	if !ok {
		t.Fatalf("unexpected result type: %T", results[0].Result)
	}
	if !first.Success || first.ConfirmationCode == "" {
		t.Fatalf("expected successful booking with code, got %#v", first)
	}

	// Same key again: structured refusal, not an error.
	results, err = registry.Execute(context.Background(), []contractx.ToolCall{
		{ID: "call_2", Name: ToolBookTable, Arguments: args},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	second, ok := results[0].Result.(BookTableOutput)
	if !ok {
		t.Fatalf("unexpected result type: %T", results[0].Result)
	}
	if second.Success {
		t.Fatal("expected second booking of the same slot to fail")
	}
	if second.Message == "" {
		t.Fatal("expected explanatory message")
	}
}

func TestExecuteBatchOrderPreserved(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	results, err := registry.Execute(context.Background(), []contractx.ToolCall{
		{ID: "a", Name: ToolCheckAvailability, Arguments: map[string]any{"date": "2024-08-01", "time": "19:00", "partySize": float64(2)}},
		{ID: "b", Name: ToolBookTable, Arguments: map[string]any{"date": "2024-08-01", "time": "19:00", "partySize": float64(2)}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].CallID != "a" || results[1].CallID != "b" {
		t.Fatalf("results out of order: %#v", results)
	}
}

func TestSimulatedLatencyHonorsCancellation(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, WithSimulatedLatency(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.Execute(ctx, []contractx.ToolCall{
		{ID: "call_1", Name: ToolCheckAvailability, Arguments: map[string]any{"date": "2024-08-01", "time": "19:00", "partySize": float64(2)}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
