package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
	promptx "github.com/CharlesKZhang/Reservation-Bot/agent/prompt"
)

const defaultTurnTimeout = 60 * time.Second

// Shown when the model produces no usable reply text; a turn always ends
// with something to say.
const fallbackReply = "I'm sorry, I wasn't able to put together a reply. Could you rephrase that?"

// Option customizes a Conversation.
type Option func(*Conversation)

// WithTurnTimeout bounds one whole turn: both model round trips and tool
// execution. Zero disables the bound.
func WithTurnTimeout(d time.Duration) Option {
	return func(c *Conversation) {
		c.turnTimeout = d
	}
}

// WithSystemPrompt overrides the embedded concierge instruction. The text
// may carry a {current_date} placeholder.
func WithSystemPrompt(text string) Option {
	return func(c *Conversation) {
		if strings.TrimSpace(text) != "" {
			c.systemPrompt = text
		}
	}
}

// WithClock overrides the date source injected into the system prompt.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

// Conversation drives one reservation dialogue: it owns the running
// transcript with the model and executes tool calls through the gateway.
// ProcessTurn serializes internally; a conversation never runs two turns at
// once, though distinct conversations may run turns concurrently.
type Conversation struct {
	mu sync.Mutex

	chatModel    einomodel.ToolCallingChatModel
	tools        contractx.ToolGateway
	systemPrompt string
	turnTimeout  time.Duration
	now          func() time.Time

	promptRunner compose.Runnable[map[string]any, []*schema.Message]
	turnRunner   compose.Runnable[turnInput, contractx.TurnResult]

	history []*schema.Message
}

// New binds the tool schemas to the chat model and compiles the turn graph.
func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	tools contractx.ToolGateway,
	toolInfos []*schema.ToolInfo,
	opts ...Option,
) (*Conversation, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if tools == nil {
		return nil, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}

	if len(toolInfos) > 0 {
		bound, err := chatModel.WithTools(toolInfos)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
		chatModel = bound
	}

	c := &Conversation{
		chatModel:    chatModel,
		tools:        tools,
		systemPrompt: promptx.Concierge(),
		turnTimeout:  defaultTurnTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	promptRunner, err := compileTurnPromptGraph(ctx, c.systemPrompt)
	if err != nil {
		return nil, err
	}
	c.promptRunner = promptRunner

	turnRunner, err := c.compileTurnGraph(ctx)
	if err != nil {
		return nil, err
	}
	c.turnRunner = turnRunner

	return c, nil
}

// ProcessTurn runs one orchestration pass: user text in, final agent text
// plus the tool-call trace out. Model failures do not surface as errors;
// they are classified into the result's Failure kind with a plain-language
// FinalText, so the conversation can always answer the user.
func (c *Conversation) ProcessTurn(ctx context.Context, text string) (contractx.TurnResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return contractx.TurnResult{}, fmt.Errorf("%w: message text is empty", contractx.ErrValidation)
	}

	if c.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.turnTimeout)
		defer cancel()
	}

	log.Debug().Int("history_len", len(c.history)).Msg("turn started")

	out, err := c.turnRunner.Invoke(ctx, turnInput{Text: text})
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			return contractx.TurnResult{}, err
		}
		kind, reply := classifyModelFailure(err)
		log.Warn().Err(err).Str("failure", string(kind)).Msg("turn failed")
		return contractx.TurnResult{FinalText: reply, Failure: kind}, nil
	}

	log.Debug().
		Int("tool_calls", len(out.ToolCalls)).
		Int("tool_results", len(out.ToolResults)).
		Msg("turn completed")

	return out, nil
}

// History returns a copy of the transcript accumulated so far.
func (c *Conversation) History() []*schema.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*schema.Message, len(c.history))
	copy(out, c.history)
	return out
}
