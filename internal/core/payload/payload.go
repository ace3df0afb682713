// Package payload builds notification bodies and validates per-send
// delivery options before anything touches the wire.
package payload

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/vietddude/pushgate/internal/core/apns"
)

// MaxPayloadSize is the gateway's limit for an encoded notification body.
const MaxPayloadSize = 4096

// Notification is one push notification: the target device token plus the
// body sent to the gateway.
type Notification struct {
	DeviceToken string         `json:"device_token"`
	APS         APS            `json:"aps"`
	Custom      map[string]any `json:"custom,omitempty"`
}

// APS mirrors the gateway's aps dictionary.
type APS struct {
	Alert            *Alert `json:"alert,omitempty"`
	Badge            *int   `json:"badge,omitempty"`
	Sound            string `json:"sound,omitempty"`
	ContentAvailable int    `json:"content-available,omitempty"`
	MutableContent   int    `json:"mutable-content,omitempty"`
	Category         string `json:"category,omitempty"`
	ThreadID         string `json:"thread-id,omitempty"`
}

// Alert is the user-visible part of the notification.
type Alert struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body,omitempty"`
}

// Validate checks the target token locally, before the send is attempted.
func (n *Notification) Validate() error {
	if n.DeviceToken == "" {
		return apns.InvalidOptions("device token is empty")
	}
	if _, err := hex.DecodeString(n.DeviceToken); err != nil {
		return apns.InvalidOptions(fmt.Sprintf("device token %q is not hex-encoded", n.DeviceToken))
	}
	return nil
}

// Encode produces the JSON body sent to the gateway. Custom keys sit next
// to the aps dictionary; a custom key named "aps" is ignored rather than
// allowed to clobber it.
func (n *Notification) Encode() ([]byte, error) {
	body := make(map[string]any, len(n.Custom)+1)
	for k, v := range n.Custom {
		if k == "aps" {
			continue
		}
		body[k] = v
	}
	body["aps"] = n.APS

	data, err := json.Marshal(body)
	if err != nil {
		return nil, apns.FromJSON(err)
	}
	if len(data) > MaxPayloadSize {
		return nil, apns.InvalidOptions(
			fmt.Sprintf("encoded payload is %d bytes, limit is %d", len(data), MaxPayloadSize))
	}
	return data, nil
}
