package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
)

type turnInput struct {
	Text string
}

// turnState carries one pass through the turn graph.
type turnState struct {
	userText string

	// rendered is system + history + user, as sent on the first round trip.
	rendered  []*schema.Message
	assistant *schema.Message

	toolCalls    []contractx.ToolCall
	toolResults  []contractx.ToolResult
	toolMessages []*schema.Message

	reply     *schema.Message
	finalText string
}

// compileTurnPromptGraph builds the template-only subgraph that renders the
// system instruction (with the current date filled in), splices the running
// history, and appends the user message.
func compileTurnPromptGraph(
	ctx context.Context,
	systemPrompt string,
) (compose.Runnable[map[string]any, []*schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, []*schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add turn prompt node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add turn prompt edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", compose.END); err != nil {
		return nil, fmt.Errorf("add turn prompt edge prompt->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("conversation.turn_prompt_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile turn prompt graph: %w", err)
	}
	return runner, nil
}

// compileTurnGraph builds the per-turn state machine: render + first model
// call, then either a tool round trip or a direct reply, then finalization.
func (c *Conversation) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[turnInput, contractx.TurnResult], error) {
	graph := compose.NewGraph[turnInput, contractx.TurnResult]()

	if err := graph.AddLambdaNode("call_model",
		compose.InvokableLambda(func(ctx context.Context, in turnInput) (*turnState, error) {
			return c.runInitialCall(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn node call_model: %w", err)
	}

	if err := graph.AddLambdaNode("tool_round_trip",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return c.runToolRoundTrip(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn node tool_round_trip: %w", err)
	}

	if err := graph.AddLambdaNode("direct_reply",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			if st == nil {
				return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			st.reply = st.assistant
			st.finalText = replyText(st.assistant)
			return st, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn node direct_reply: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_turn",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (contractx.TurnResult, error) {
			return c.finalizeTurn(st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn node finalize_turn: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, st *turnState) (string, error) {
			if st == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			if st.assistant != nil && len(st.assistant.ToolCalls) > 0 {
				return "tool_round_trip", nil
			}
			return "direct_reply", nil
		},
		map[string]bool{
			"tool_round_trip": true,
			"direct_reply":    true,
		},
	)

	if err := graph.AddEdge(compose.START, "call_model"); err != nil {
		return nil, fmt.Errorf("add turn edge start->call_model: %w", err)
	}
	if err := graph.AddBranch("call_model", branch); err != nil {
		return nil, fmt.Errorf("add turn branch: %w", err)
	}
	if err := graph.AddEdge("tool_round_trip", "finalize_turn"); err != nil {
		return nil, fmt.Errorf("add turn edge tool->finalize: %w", err)
	}
	if err := graph.AddEdge("direct_reply", "finalize_turn"); err != nil {
		return nil, fmt.Errorf("add turn edge direct->finalize: %w", err)
	}
	if err := graph.AddEdge("finalize_turn", compose.END); err != nil {
		return nil, fmt.Errorf("add turn edge finalize->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("conversation.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

func (c *Conversation) runInitialCall(ctx context.Context, in turnInput) (*turnState, error) {
	rendered, err := c.promptRunner.Invoke(ctx, map[string]any{
		"current_date": c.now().Format("Monday, 2006-01-02"),
		"history":      c.history,
		"input":        in.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: render turn prompt: %v", contractx.ErrModelInvoke, err)
	}

	assistant, err := c.chatModel.Generate(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, err)
	}
	if assistant == nil {
		return nil, fmt.Errorf("%w: empty model response", contractx.ErrModelInvoke)
	}

	return &turnState{
		userText:  in.Text,
		rendered:  rendered,
		assistant: assistant,
	}, nil
}

// runToolRoundTrip executes every call the model requested, in order, then
// sends all results back in a single follow-up request. Tool calls appearing
// in the follow-up response are not executed: one round trip per turn.
func (c *Conversation) runToolRoundTrip(ctx context.Context, st *turnState) (*turnState, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	for _, raw := range st.assistant.ToolCalls {
		call, convErr := toContractCall(raw)
		st.toolCalls = append(st.toolCalls, call)

		var result contractx.ToolResult
		if convErr != nil {
			result = contractx.ToolResult{CallID: call.ID, Name: call.Name, Error: convErr.Error()}
		} else {
			results, err := c.tools.Execute(ctx, []contractx.ToolCall{call})
			if err != nil {
				return nil, fmt.Errorf("%w: execute tool=%s: %v", contractx.ErrModelInvoke, call.Name, err)
			}
			if len(results) != 1 {
				return nil, fmt.Errorf("%w: expected one result for tool=%s, got %d", contractx.ErrValidation, call.Name, len(results))
			}
			result = results[0]
		}

		st.toolResults = append(st.toolResults, result)
		st.toolMessages = append(st.toolMessages, schema.ToolMessage(toolResultContent(result), result.CallID))
	}

	followupInput := make([]*schema.Message, 0, len(st.rendered)+1+len(st.toolMessages))
	followupInput = append(followupInput, st.rendered...)
	followupInput = append(followupInput, st.assistant)
	followupInput = append(followupInput, st.toolMessages...)

	reply, err := c.chatModel.Generate(ctx, followupInput)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, err)
	}

	st.reply = reply
	st.finalText = replyText(reply)
	return st, nil
}

// finalizeTurn commits the turn to the transcript and shapes the result.
func (c *Conversation) finalizeTurn(st *turnState) (contractx.TurnResult, error) {
	if st == nil {
		return contractx.TurnResult{}, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	c.history = append(c.history, schema.UserMessage(st.userText))
	c.history = append(c.history, st.assistant)
	c.history = append(c.history, st.toolMessages...)
	if st.reply != nil && st.reply != st.assistant {
		c.history = append(c.history, st.reply)
	}

	return contractx.TurnResult{
		FinalText:   st.finalText,
		ToolCalls:   st.toolCalls,
		ToolResults: st.toolResults,
	}, nil
}

// toContractCall parses a wire-level tool call. A bad call is still traced:
// the returned call carries whatever we could read, and the error becomes a
// structured result for the model rather than a turn abort.
func toContractCall(raw schema.ToolCall) (contractx.ToolCall, error) {
	call := contractx.ToolCall{
		ID:   raw.ID,
		Name: strings.TrimSpace(raw.Function.Name),
	}
	if call.Name == "" {
		return call, fmt.Errorf("tool call name is empty")
	}

	rawArgs := strings.TrimSpace(raw.Function.Arguments)
	if rawArgs != "" {
		args := map[string]any{}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return call, fmt.Errorf("invalid arguments for tool %s: %v", call.Name, err)
		}
		call.Arguments = args
	}
	return call, nil
}

func toolResultContent(result contractx.ToolResult) string {
	payload := result.Result
	if result.Error != "" {
		payload = map[string]string{"error": result.Error}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		encoded, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("encode tool result: %v", err)})
	}
	return string(encoded)
}

func replyText(msg *schema.Message) string {
	if msg == nil {
		return fallbackReply
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return fallbackReply
	}
	return text
}
