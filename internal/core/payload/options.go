package payload

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vietddude/pushgate/internal/core/apns"
)

// Priority controls how urgently the gateway delivers a notification.
type Priority int

const (
	// PriorityDefault leaves the header unset; the gateway picks.
	PriorityDefault Priority = 0
	// PriorityLow allows the gateway to batch and delay delivery.
	PriorityLow Priority = 5
	// PriorityHigh requests immediate delivery.
	PriorityHigh Priority = 10
)

// PushType tells the gateway how the notification should be handled on
// the device.
type PushType string

const (
	PushTypeAlert      PushType = "alert"
	PushTypeBackground PushType = "background"
	PushTypeVoIP       PushType = "voip"
	PushTypeMDM        PushType = "mdm"
)

const maxCollapseIDLen = 64

// Options carries the per-send delivery options sent as request headers.
type Options struct {
	// ApnsID is the caller-chosen notification identifier. Must be a
	// canonical UUID when set; the gateway assigns one otherwise.
	ApnsID string `json:"apns_id,omitempty"`

	// Topic is the target application's topic (typically its bundle id).
	Topic string `json:"topic,omitempty"`

	// CollapseID folds multiple notifications into one on the device.
	CollapseID string `json:"collapse_id,omitempty"`

	Priority Priority `json:"priority,omitempty"`

	// Expiration is the UNIX time after which the gateway drops an
	// undelivered notification. Zero means deliver once, immediately.
	Expiration int64 `json:"expiration,omitempty"`

	PushType PushType `json:"push_type,omitempty"`
}

// Validate checks option values locally. Every violation names the
// offending option so the caller can correct the request before retrying.
func (o *Options) Validate() error {
	if o.ApnsID != "" {
		if _, err := uuid.Parse(o.ApnsID); err != nil {
			return apns.InvalidOptions(fmt.Sprintf("apns-id %q is not a valid UUID", o.ApnsID))
		}
	}

	switch o.Priority {
	case PriorityDefault, PriorityLow, PriorityHigh:
	default:
		return apns.InvalidOptions(fmt.Sprintf("priority must be 5 or 10, got %d", o.Priority))
	}

	if len(o.CollapseID) > maxCollapseIDLen {
		return apns.InvalidOptions(
			fmt.Sprintf("collapse-id is %d bytes, limit is %d", len(o.CollapseID), maxCollapseIDLen))
	}

	switch o.PushType {
	case "", PushTypeAlert, PushTypeBackground, PushTypeVoIP, PushTypeMDM:
	default:
		return apns.InvalidOptions(fmt.Sprintf("unknown push type %q", o.PushType))
	}

	return nil
}
