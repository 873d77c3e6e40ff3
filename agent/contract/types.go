package contract

// ToolCall is a model-issued request to invoke a named tool. The ID is opaque
// to us and must be echoed back on the matching ToolResult.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of one tool call, fed back to the model. At most
// one of Result and Error is set: a non-empty Error marks a failed call that
// the model, not the orchestrator, must phrase to the user.
type ToolResult struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FailureKind classifies a turn-level failure so the calling layer can react
// (for example re-prompting for a credential) without parsing message text.
type FailureKind string

const (
	FailureNone             FailureKind = ""
	FailureModelUnavailable FailureKind = "model_unavailable"
	FailureModelAuth        FailureKind = "model_auth"
	FailureTimeout          FailureKind = "timeout"
)

// TurnResult is what one orchestration pass produces: the user-facing text
// plus a trace of every tool call the model requested and every result that
// was produced. FinalText is always non-empty, even when Failure is set.
type TurnResult struct {
	FinalText   string       `json:"final_text"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	Failure     FailureKind  `json:"failure,omitempty"`
}

// Failed reports whether the turn ended on a classified model failure.
func (t TurnResult) Failed() bool {
	return t.Failure != FailureNone
}
