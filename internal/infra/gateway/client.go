// Package gateway implements the HTTP/2 client that delivers notifications
// to the remote gateway. It is the single boundary where transport, TLS,
// JSON and timeout failures are converted into the apns taxonomy.
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/vietddude/pushgate/internal/core/apns"
	"github.com/vietddude/pushgate/internal/core/payload"
	"github.com/vietddude/pushgate/internal/core/token"
)

// Gateway endpoints.
const (
	Production = "https://api.push.apple.com"
	Sandbox    = "https://api.sandbox.push.apple.com"
)

// Config holds gateway connection settings. CertFile/KeyFile enable
// certificate authentication; token authentication is passed to NewClient
// separately.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Client sends notifications to the gateway over HTTP/2.
type Client struct {
	endpoint   string
	httpClient *http.Client
	signer     *token.Signer // nil when using certificate auth
}

// NewClient creates a gateway client. Exactly one of certificate auth
// (via cfg) or token auth (via signer) should be configured.
func NewClient(cfg Config, signer *token.Signer) (*Client, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CertFile != "" {
		certPEM, err := os.ReadFile(cfg.CertFile)
		if err != nil {
			return nil, apns.FromRead(err)
		}
		keyPEM, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, apns.FromRead(err)
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, apns.FromTLS(err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = Production
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: &http2.Transport{TLSClientConfig: tlsCfg},
		},
		signer: signer,
	}, nil
}

// Send delivers one notification. The context carries the caller's time
// budget; every failure on the way out or back is returned as a classified
// *apns.Error.
func (c *Client) Send(ctx context.Context, n *payload.Notification, opts *payload.Options) (*apns.Response, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &payload.Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	body, err := n.Encode()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/3/device/%s", c.endpoint, n.DeviceToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apns.FromTransport(err)
	}
	requestID := setHeaders(req, opts)

	if c.signer != nil {
		bearer, err := c.signer.Token()
		if err != nil {
			return nil, err
		}
		req.Header.Set("authorization", "bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	apnsID := resp.Header.Get("apns-id")
	if apnsID == "" {
		apnsID = requestID
	}

	if resp.StatusCode == http.StatusOK {
		return &apns.Response{StatusCode: resp.StatusCode, ApnsID: apnsID}, nil
	}

	rejection := &apns.Response{StatusCode: resp.StatusCode, ApnsID: apnsID}
	var reason apns.ReasonBody
	if err := json.NewDecoder(resp.Body).Decode(&reason); err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, apns.FromJSON(err)
		}
		// Empty body: the rejection stands on the status code alone.
	} else {
		rejection.Body = &reason
	}

	return nil, apns.FromResponse(rejection)
}

// setHeaders applies the delivery options as request headers and returns
// the notification id used for the request.
func setHeaders(req *http.Request, opts *payload.Options) string {
	req.Header.Set("content-type", "application/json")

	id := opts.ApnsID
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set("apns-id", id)

	if opts.Topic != "" {
		req.Header.Set("apns-topic", opts.Topic)
	}
	if opts.Priority != payload.PriorityDefault {
		req.Header.Set("apns-priority", strconv.Itoa(int(opts.Priority)))
	}
	if opts.Expiration > 0 {
		req.Header.Set("apns-expiration", strconv.FormatInt(opts.Expiration, 10))
	}
	if opts.CollapseID != "" {
		req.Header.Set("apns-collapse-id", opts.CollapseID)
	}
	if opts.PushType != "" {
		req.Header.Set("apns-push-type", string(opts.PushType))
	}
	return id
}

// classifyTransport maps a failed round trip into the taxonomy. The
// deadline check must come first: an expired budget also surfaces
// wrapped in a url.Error.
func classifyTransport(err error) *apns.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apns.Timeout()
	}

	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return apns.FromTLS(err)
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return apns.FromTLS(err)
	}
	if strings.Contains(err.Error(), "tls:") {
		return apns.FromTLS(err)
	}

	return apns.FromTransport(err)
}
