package llm

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
)

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: "openai/gpt-4o-mini"}
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidateRequiresModel(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "sk-test"}
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestOpenRouterMapping(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BaseURL:            " https://openrouter.ai/api/v1 ",
		APIKey:             " sk-test ",
		Model:              "openai/gpt-4o-mini",
		MaxCompletionToken: 1234,
		Temperature:        0.2,
		Timeout:            15 * time.Second,
	}
	out := cfg.OpenRouter()
	if out.APIKey != "sk-test" {
		t.Fatalf("api key not trimmed: %q", out.APIKey)
	}
	if out.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", out.Model)
	}
	if out.MaxCompletionToken == nil || *out.MaxCompletionToken != 1234 {
		t.Fatalf("unexpected max completion token: %v", out.MaxCompletionToken)
	}
	if out.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout: %v", out.Timeout)
	}
}
