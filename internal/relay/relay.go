// Package relay drives delivery: workers pull queued jobs, send them
// through the gateway client and act on the classified outcome. All retry
// and timeout policy lives here, never in the classifier.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vietddude/pushgate/internal/core/apns"
	"github.com/vietddude/pushgate/internal/core/config"
	"github.com/vietddude/pushgate/internal/core/payload"
	"github.com/vietddude/pushgate/internal/infra/queue"
	"github.com/vietddude/pushgate/internal/infra/storage/postgres"
	"github.com/vietddude/pushgate/internal/metrics"
)

// Sender abstracts the gateway client.
type Sender interface {
	Send(ctx context.Context, n *payload.Notification, opts *payload.Options) (*apns.Response, error)
}

// Relay consumes queued jobs and delivers them.
type Relay struct {
	cfg        config.RelayConfig
	sender     Sender
	queue      *queue.Client
	deliveries *postgres.DeliveryRepo // nil when audit storage is disabled
	log        *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a relay. deliveries may be nil.
func New(cfg config.RelayConfig, sender Sender, q *queue.Client, deliveries *postgres.DeliveryRepo) *Relay {
	return &Relay{
		cfg:        cfg,
		sender:     sender,
		queue:      q,
		deliveries: deliveries,
		log:        slog.Default(),
	}
}

// Start launches the delivery workers.
func (r *Relay) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go func(id int) {
			defer r.wg.Done()
			r.worker(ctx, id)
		}(i)
	}

	r.log.Info("Relay started", "workers", r.cfg.Workers)
	return nil
}

// Stop cancels the workers and waits for them, bounded by ctx.
func (r *Relay) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) worker(ctx context.Context, id int) {
	log := r.log.With("worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := r.queue.Dequeue(ctx, time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("Failed to dequeue job", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		r.process(ctx, log, job)
	}
}

func (r *Relay) process(ctx context.Context, log *slog.Logger, job *queue.Job) {
	start := time.Now()
	resp, err := r.deliver(ctx, job)
	latency := time.Since(start)

	if err == nil {
		metrics.SendsTotal.WithLabelValues(postgres.StatusDelivered).Inc()
		metrics.SendLatency.WithLabelValues(postgres.StatusDelivered).Observe(latency.Seconds())
		r.record(ctx, &postgres.Delivery{
			ApnsID:      resp.ApnsID,
			DeviceToken: job.Notification.DeviceToken,
			Status:      postgres.StatusDelivered,
		})
		log.Debug("Notification delivered", "apns_id", resp.ApnsID, "latency", latency)
		return
	}

	metrics.SendsTotal.WithLabelValues(postgres.StatusFailed).Inc()
	metrics.SendLatency.WithLabelValues(postgres.StatusFailed).Observe(latency.Seconds())

	var aerr *apns.Error
	if !errors.As(err, &aerr) {
		// Context cancellation during shutdown ends up here; anything
		// else would be a sender not honoring its contract.
		log.Warn("Send aborted", "error", err)
		return
	}

	metrics.SendFailuresTotal.WithLabelValues(aerr.Kind().String()).Inc()

	delivery := &postgres.Delivery{
		DeviceToken: job.Notification.DeviceToken,
		Status:      postgres.StatusFailed,
		Kind:        aerr.Kind().String(),
	}

	if aerr.Kind() == apns.KindRemoteRejection {
		rejection := aerr.Response()
		delivery.ApnsID = rejection.ApnsID
		delivery.Reason = rejection.Reason()
		metrics.RejectionsTotal.WithLabelValues(rejection.Reason()).Inc()

		switch rejection.Reason() {
		case apns.ReasonUnregistered, apns.ReasonBadDeviceToken:
			var ts int64
			if rejection.Body != nil {
				ts = rejection.Body.Timestamp
			}
			if err := r.queue.RecordUnregistered(ctx, job.Notification.DeviceToken, ts); err != nil {
				log.Warn("Failed to record unregistered token", "error", err)
			}
		}
	}

	r.record(ctx, delivery)
	log.Warn("Send failed",
		"kind", aerr.Kind().String(),
		"category", aerr.Description(),
		"error", aerr)
}

// deliver runs one send under the configured time budget and retry policy.
func (r *Relay) deliver(parent context.Context, job *queue.Job) (*apns.Response, error) {
	backoff := retry.WithMaxRetries(uint64(r.cfg.MaxAttempts-1), retry.NewFibonacci(200*time.Millisecond))

	var resp *apns.Response
	err := retry.Do(parent, backoff, func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, r.cfg.SendTimeout)
		defer cancel()

		res, err := r.sender.Send(sendCtx, job.Notification, r.options(job))
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		resp = res
		return nil
	})
	return resp, err
}

func (r *Relay) options(job *queue.Job) *payload.Options {
	opts := job.Options
	if opts == nil {
		opts = &payload.Options{}
	}
	if opts.Topic == "" {
		opts.Topic = r.cfg.DefaultTopic
	}
	return opts
}

// retryable reports whether a classified failure is safe to retry:
// transient infrastructure failures, plus the gateway reasons that signal
// a server-side condition rather than a verdict on the notification.
func retryable(err error) bool {
	var aerr *apns.Error
	if !errors.As(err, &aerr) {
		return false
	}

	switch aerr.Kind() {
	case apns.KindConnection, apns.KindTimeout:
		return true
	case apns.KindRemoteRejection:
		switch aerr.Response().Reason() {
		case apns.ReasonTooManyRequests,
			apns.ReasonInternalServerError,
			apns.ReasonServiceUnavailable,
			apns.ReasonShutdown:
			return true
		}
	}
	return false
}

func (r *Relay) record(ctx context.Context, d *postgres.Delivery) {
	if r.deliveries == nil {
		return
	}
	if err := r.deliveries.Record(ctx, d); err != nil {
		r.log.Warn("Failed to record delivery", "error", err)
	}
}
