package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/pushgate/internal/infra/queue"
)

var feedbackClear bool

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "List device tokens the gateway reported as unregistered",
	Run:   runFeedback,
}

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackClear, "clear", false, "remove listed tokens from the feedback store")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	q, err := queue.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to init queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := q.Unregistered(ctx)
	if err != nil {
		slog.Error("Failed to list unregistered tokens", "error", err)
		os.Exit(1)
	}

	for _, tok := range tokens {
		fmt.Println(tok)
	}
	slog.Info("Feedback store listed", "count", len(tokens))

	if feedbackClear && len(tokens) > 0 {
		if err := q.ClearUnregistered(ctx, tokens...); err != nil {
			slog.Error("Failed to clear feedback store", "error", err)
			os.Exit(1)
		}
		slog.Info("Feedback store cleared", "count", len(tokens))
	}
}
