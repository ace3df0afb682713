package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/pushgate/internal/core/config"
	"github.com/vietddude/pushgate/internal/core/token"
	"github.com/vietddude/pushgate/internal/health"
	"github.com/vietddude/pushgate/internal/infra/gateway"
	"github.com/vietddude/pushgate/internal/infra/queue"
	"github.com/vietddude/pushgate/internal/infra/storage/postgres"
	"github.com/vietddude/pushgate/internal/metrics"
)

// App wires the relay with its dependencies and manages their lifecycle.
type App struct {
	relay        *Relay
	queue        *queue.Client
	db           *postgres.DB
	healthServer *health.Server
	log          *slog.Logger
}

// NewApp creates the application from configuration.
func NewApp(cfg *config.AppConfig) (*App, error) {
	q, err := queue.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to init queue: %w", err)
	}

	var db *postgres.DB
	var deliveries *postgres.DeliveryRepo
	if cfg.Database.URL != "" {
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, err
		}
		deliveries = postgres.NewDeliveryRepo(db)
		slog.Info("Delivery audit log enabled")
	}

	var signer *token.Signer
	if cfg.Token.KeyFile != "" {
		signer, err = token.NewSigner(cfg.Token.KeyFile, cfg.Token.KeyID, cfg.Token.TeamID)
		if err != nil {
			return nil, err
		}
	}
	if signer == nil && cfg.Gateway.CertFile == "" {
		return nil, errors.New("no gateway credentials configured: set token.key_file or gateway.cert_file")
	}

	gw, err := gateway.NewClient(cfg.Gateway, signer)
	if err != nil {
		return nil, err
	}

	return &App{
		relay:        New(cfg.Relay, gw, q, deliveries),
		queue:        q,
		db:           db,
		healthServer: health.NewServer(cfg.Server.Port, q, db),
		log:          slog.Default(),
	}, nil
}

// Start launches the workers and the health server.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	go a.observeQueue(ctx)

	return a.relay.Start(ctx)
}

// Stop shuts everything down gracefully, bounded by ctx.
func (a *App) Stop(ctx context.Context) error {
	if err := a.relay.Stop(ctx); err != nil {
		return err
	}
	if err := a.healthServer.Stop(ctx); err != nil {
		return err
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return err
		}
	}
	return a.queue.Close()
}

// observeQueue keeps the queue gauges current.
func (a *App) observeQueue(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if depth, err := a.queue.Depth(ctx); err == nil {
				metrics.QueueDepth.Set(float64(depth))
			}
			if tokens, err := a.queue.Unregistered(ctx); err == nil {
				metrics.UnregisteredTokens.Set(float64(len(tokens)))
			}
		}
	}
}
