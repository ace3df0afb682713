package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/pushgate/internal/core/apns"
	"github.com/vietddude/pushgate/internal/core/payload"
	"github.com/vietddude/pushgate/internal/core/token"
	"github.com/vietddude/pushgate/internal/infra/gateway"
	"github.com/vietddude/pushgate/internal/infra/queue"
)

var (
	sendDeviceToken string
	sendTitle       string
	sendBody        string
	sendTopic       string
	sendPriority    int
	sendSound       string
	sendEnqueue     bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single notification",
	Long:  `Send delivers one notification directly, or enqueues it for the relay with --enqueue.`,
	Run:   runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendDeviceToken, "device-token", "", "target device token (required)")
	sendCmd.Flags().StringVar(&sendTitle, "title", "", "alert title")
	sendCmd.Flags().StringVar(&sendBody, "body", "", "alert body")
	sendCmd.Flags().StringVar(&sendTopic, "topic", "", "apns-topic (defaults to relay.default_topic)")
	sendCmd.Flags().IntVar(&sendPriority, "priority", 0, "delivery priority (5 or 10)")
	sendCmd.Flags().StringVar(&sendSound, "sound", "", "notification sound")
	sendCmd.Flags().BoolVar(&sendEnqueue, "enqueue", false, "enqueue for the relay instead of sending directly")
	_ = sendCmd.MarkFlagRequired("device-token")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	n := &payload.Notification{
		DeviceToken: sendDeviceToken,
		APS: payload.APS{
			Alert: &payload.Alert{Title: sendTitle, Body: sendBody},
			Sound: sendSound,
		},
	}
	topic := sendTopic
	if topic == "" {
		topic = cfg.Relay.DefaultTopic
	}
	opts := &payload.Options{
		Topic:    topic,
		Priority: payload.Priority(sendPriority),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Relay.SendTimeout)
	defer cancel()

	if sendEnqueue {
		q, err := queue.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("Failed to init queue", "error", err)
			os.Exit(1)
		}
		defer q.Close()

		if err := q.Enqueue(ctx, &queue.Job{Notification: n, Options: opts}); err != nil {
			slog.Error("Failed to enqueue notification", "error", err)
			os.Exit(1)
		}
		slog.Info("Notification enqueued", "device_token", sendDeviceToken)
		return
	}

	var signer *token.Signer
	if cfg.Token.KeyFile != "" {
		var err error
		signer, err = token.NewSigner(cfg.Token.KeyFile, cfg.Token.KeyID, cfg.Token.TeamID)
		if err != nil {
			reportFailure(err)
		}
	}

	client, err := gateway.NewClient(cfg.Gateway, signer)
	if err != nil {
		reportFailure(err)
	}

	resp, err := client.Send(ctx, n, opts)
	if err != nil {
		reportFailure(err)
	}

	slog.Info("Notification delivered", "apns_id", resp.ApnsID)
}

// reportFailure logs a classified failure and exits. The exit code
// follows the taxonomy's partition: 2 for caller-correctable input, 3 for
// a gateway verdict, 1 for infrastructure.
func reportFailure(err error) {
	var aerr *apns.Error
	if !errors.As(err, &aerr) {
		slog.Error("Send failed", "error", err)
		os.Exit(1)
	}

	slog.Error("Send failed",
		"kind", aerr.Kind().String(),
		"category", aerr.Description(),
		"error", aerr)

	switch aerr.Kind() {
	case apns.KindSerialize, apns.KindInvalidOptions:
		os.Exit(2)
	case apns.KindRemoteRejection:
		os.Exit(3)
	default:
		os.Exit(1)
	}
}
