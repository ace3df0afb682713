package apns

// Response is the gateway's structured outcome for a send the gateway
// refused: the connection succeeded, the content did not.
type Response struct {
	// StatusCode is the HTTP status the gateway answered with.
	StatusCode int

	// ApnsID is the gateway-assigned notification identifier, echoed from
	// the apns-id header.
	ApnsID string

	// Body is the parsed rejection body, when the gateway sent one.
	Body *ReasonBody
}

// Reason returns the machine-readable rejection reason, or "" when the
// gateway sent no body.
func (r *Response) Reason() string {
	if r.Body == nil {
		return ""
	}
	return r.Body.Reason
}

// ReasonBody mirrors the gateway's rejection body. The shape is owned by
// the gateway schema and must be kept in lockstep with it; reasons are
// carried verbatim, never normalized.
type ReasonBody struct {
	Reason string `json:"reason"`

	// Timestamp is set (ms since epoch) when the gateway reports the last
	// moment a now-invalid device token was valid.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Known gateway rejection reasons.
const (
	ReasonBadCollapseID             = "BadCollapseId"
	ReasonBadDeviceToken            = "BadDeviceToken"
	ReasonBadExpirationDate         = "BadExpirationDate"
	ReasonBadMessageID              = "BadMessageId"
	ReasonBadPriority               = "BadPriority"
	ReasonBadTopic                  = "BadTopic"
	ReasonDeviceTokenNotForTopic    = "DeviceTokenNotForTopic"
	ReasonDuplicateHeaders          = "DuplicateHeaders"
	ReasonIdleTimeout               = "IdleTimeout"
	ReasonMissingDeviceToken        = "MissingDeviceToken"
	ReasonMissingTopic              = "MissingTopic"
	ReasonPayloadEmpty              = "PayloadEmpty"
	ReasonTopicDisallowed           = "TopicDisallowed"
	ReasonBadCertificate            = "BadCertificate"
	ReasonBadCertificateEnvironment = "BadCertificateEnvironment"
	ReasonExpiredProviderToken      = "ExpiredProviderToken"
	ReasonForbidden                 = "Forbidden"
	ReasonInvalidProviderToken      = "InvalidProviderToken"
	ReasonMissingProviderToken      = "MissingProviderToken"
	ReasonUnregistered              = "Unregistered"
	ReasonPayloadTooLarge           = "PayloadTooLarge"
	ReasonTooManyProviderTokens     = "TooManyProviderTokenUpdates"
	ReasonTooManyRequests           = "TooManyRequests"
	ReasonInternalServerError       = "InternalServerError"
	ReasonServiceUnavailable        = "ServiceUnavailable"
	ReasonShutdown                  = "Shutdown"
)
