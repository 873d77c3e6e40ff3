package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
)

// Handler executes one tool call. A returned error is wrapped into the
// ToolResult payload so the model can phrase the failure; it never aborts
// the turn.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type registration struct {
	info    *schema.ToolInfo
	handler Handler
}

// RegistryOption customizes Registry.
type RegistryOption func(*Registry)

// WithSimulatedLatency adds a context-aware delay before each handler runs,
// standing in for the round trip to a real reservation backend.
func WithSimulatedLatency(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.latency = d
		}
	}
}

// Registry maps tool names to schemas and handlers. Dispatch is by exact
// name; an unknown name produces a structured error result, never a Go error.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]registration
	latency time.Duration
}

var _ contractx.ToolGateway = (*Registry)(nil)

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]registration),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register binds a schema and handler under the schema's tool name. Names
// must be non-empty and unique.
func (r *Registry) Register(info *schema.ToolInfo, handler Handler) error {
	if info == nil || strings.TrimSpace(info.Name) == "" {
		return fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
	}
	if handler == nil {
		return fmt.Errorf("%w: handler is nil for tool=%s", contractx.ErrValidation, info.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[info.Name]; exists {
		return fmt.Errorf("%w: tool=%s already registered", contractx.ErrValidation, info.Name)
	}
	r.entries[info.Name] = registration{info: info, handler: handler}
	r.order = append(r.order, info.Name)
	return nil
}

// Infos returns the registered tool schemas in registration order, for
// binding to the chat model.
func (r *Registry) Infos() []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.entries[name].info)
	}
	return infos
}

// Execute runs the requested calls sequentially in the order received. Every
// call gets a ToolResult echoing its ID; per-call failures ride inside the
// result. The error return fires only on context cancellation.
func (r *Registry) Execute(ctx context.Context, calls []contractx.ToolCall) ([]contractx.ToolResult, error) {
	results := make([]contractx.ToolResult, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := r.executeOne(ctx, call)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *Registry) executeOne(ctx context.Context, call contractx.ToolCall) (contractx.ToolResult, error) {
	r.mu.RLock()
	entry, known := r.entries[call.Name]
	latency := r.latency
	r.mu.RUnlock()

	if !known {
		log.Warn().Str("tool", call.Name).Str("call_id", call.ID).Msg("unknown tool requested")
		return contractx.ToolResult{
			CallID: call.ID,
			Name:   call.Name,
			Error:  fmt.Sprintf("Function %s not found", call.Name),
		}, nil
	}

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return contractx.ToolResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	log.Debug().Str("tool", call.Name).Str("call_id", call.ID).Msg("executing tool")
	payload, err := entry.handler(ctx, call.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Str("call_id", call.ID).Msg("tool handler failed")
		return contractx.ToolResult{
			CallID: call.ID,
			Name:   call.Name,
			Error:  err.Error(),
		}, nil
	}

	return contractx.ToolResult{
		CallID: call.ID,
		Name:   call.Name,
		Result: payload,
	}, nil
}
