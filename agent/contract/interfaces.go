package contract

import "context"

// ToolGateway executes a batch of tool calls in the order received. Per-call
// failures are carried inside the returned ToolResults; the error return is
// reserved for context cancellation.
type ToolGateway interface {
	Execute(ctx context.Context, calls []ToolCall) ([]ToolResult, error)
}
