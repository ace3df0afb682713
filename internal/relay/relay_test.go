package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/pushgate/internal/core/apns"
	"github.com/vietddude/pushgate/internal/core/config"
	"github.com/vietddude/pushgate/internal/core/payload"
	"github.com/vietddude/pushgate/internal/infra/queue"
)

// fakeSender fails with the scripted errors, then succeeds.
type fakeSender struct {
	errs  []error
	calls int
}

func (f *fakeSender) Send(ctx context.Context, n *payload.Notification, opts *payload.Options) (*apns.Response, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &apns.Response{StatusCode: 200, ApnsID: "8bbd79d2-8e67-44b1-9fbc-7d9e06f0b874"}, nil
}

func testJob() *queue.Job {
	return &queue.Job{
		Notification: &payload.Notification{DeviceToken: "00fc13ad"},
	}
}

func testRelay(s Sender) *Relay {
	return &Relay{
		cfg: config.RelayConfig{
			Workers:     1,
			SendTimeout: time.Second,
			MaxAttempts: 3,
		},
		sender: s,
	}
}

func TestDeliverRetriesConnectionFailures(t *testing.T) {
	sender := &fakeSender{errs: []error{
		apns.FromTransport(errors.New("connection reset")),
		apns.Timeout(),
	}}

	resp, err := testRelay(sender).deliver(context.Background(), testJob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 3 {
		t.Errorf("calls = %d, want 3", sender.calls)
	}
	if resp.ApnsID == "" {
		t.Error("missing apns-id on delivered response")
	}
}

func TestDeliverDoesNotRetryRejections(t *testing.T) {
	rejection := apns.FromResponse(&apns.Response{
		StatusCode: 400,
		Body:       &apns.ReasonBody{Reason: apns.ReasonBadDeviceToken},
	})
	sender := &fakeSender{errs: []error{rejection}}

	_, err := testRelay(sender).deliver(context.Background(), testJob())

	var aerr *apns.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if aerr.Kind() != apns.KindRemoteRejection {
		t.Errorf("kind = %v, want rejected", aerr.Kind())
	}
	if sender.calls != 1 {
		t.Errorf("calls = %d, terminal rejection must not be retried", sender.calls)
	}
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{errs: []error{
		apns.FromTransport(errors.New("down")),
		apns.FromTransport(errors.New("down")),
		apns.FromTransport(errors.New("down")),
		apns.FromTransport(errors.New("down")),
	}}

	_, err := testRelay(sender).deliver(context.Background(), testJob())

	var aerr *apns.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if aerr.Kind() != apns.KindConnection {
		t.Errorf("kind = %v, want connection", aerr.Kind())
	}
	if sender.calls != 3 {
		t.Errorf("calls = %d, want max attempts 3", sender.calls)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection", apns.FromTransport(errors.New("refused")), true},
		{"timeout", apns.Timeout(), true},
		{"serialize", apns.FromJSON(errors.New("bad json")), false},
		{"invalid options", apns.InvalidOptions("priority must be 5 or 10, got 7"), false},
		{"signing", apns.FromSigning(errors.New("bad key format")), false},
		{"tls", apns.FromTLS(errors.New("tls: handshake failure")), false},
		{"read", apns.FromRead(errors.New("no such file")), false},
		{
			"rejected bad token",
			apns.FromResponse(&apns.Response{Body: &apns.ReasonBody{Reason: apns.ReasonBadDeviceToken}}),
			false,
		},
		{
			"rejected too many requests",
			apns.FromResponse(&apns.Response{Body: &apns.ReasonBody{Reason: apns.ReasonTooManyRequests}}),
			true,
		},
		{
			"rejected server error",
			apns.FromResponse(&apns.Response{Body: &apns.ReasonBody{Reason: apns.ReasonInternalServerError}}),
			true,
		},
		{"unclassified", errors.New("plain error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOptionsDefaultTopic(t *testing.T) {
	r := testRelay(&fakeSender{})
	r.cfg.DefaultTopic = "com.example.app"

	job := testJob()
	if got := r.options(job).Topic; got != "com.example.app" {
		t.Errorf("topic = %q, want default applied", got)
	}

	job.Options = &payload.Options{Topic: "com.example.other"}
	if got := r.options(job).Topic; got != "com.example.other" {
		t.Errorf("topic = %q, job topic must win", got)
	}
}
