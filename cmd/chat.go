package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	bookingx "github.com/CharlesKZhang/Reservation-Bot/agent/booking"
	conversationx "github.com/CharlesKZhang/Reservation-Bot/agent/conversation"
	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
	llmx "github.com/CharlesKZhang/Reservation-Bot/agent/llm"
	toolx "github.com/CharlesKZhang/Reservation-Bot/agent/tool"
	configx "github.com/CharlesKZhang/Reservation-Bot/pkg/config"
	openrouterx "github.com/CharlesKZhang/Reservation-Bot/pkg/openrouter"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive reservation chat on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
}

func runChat(ctx context.Context) error {
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrConfiguration, err)
	}
	if err := llmCfg.Validate(); err != nil {
		return err
	}

	// Fail fast on a missing credential before any conversation starts.
	if _, err := openrouterx.NewClient(llmCfg.OpenRouter()); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrConfiguration, err)
	}

	clientCfg := llmCfg.OpenRouter()
	chatModel, err := clientCfg.New(ctx)
	if err != nil {
		return err
	}

	store := bookingx.NewMemoryStore(bookingx.DefaultSeed())
	registry, err := toolx.BuildRegistry(store)
	if err != nil {
		return err
	}

	conv, err := conversationx.New(ctx, chatModel, registry, registry.Infos(),
		conversationx.WithTurnTimeout(llmCfg.TurnTimeout))
	if err != nil {
		return err
	}

	log.Info().Str("model", llmCfg.Model).Msg("reservation chat ready")
	fmt.Println("Reservation agent ready. Type your request, or \"exit\" to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		out, err := conv.ProcessTurn(ctx, line)
		if err != nil {
			return err
		}
		fmt.Printf("agent> %s\n", out.FinalText)

		// Credential reselection is the operator's call; we only flag it.
		if out.Failure == contractx.FailureModelAuth {
			fmt.Println("hint: set OPENROUTER_API_KEY to a valid key and restart")
		}
	}
	return scanner.Err()
}
