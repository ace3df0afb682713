// Package apns defines the closed failure taxonomy for notification sends.
// Every fallible operation of the delivery client reports a single *Error;
// callers branch on its Kind instead of parsing transport or crypto errors.
package apns

import "fmt"

// Kind identifies a failure category.
type Kind int

const (
	// KindSerialize: request or response JSON was malformed or un-encodable.
	KindSerialize Kind = iota

	// KindConnection: the transport layer failed to reach the gateway.
	KindConnection

	// KindTimeout: the caller's time budget elapsed before the send completed.
	KindTimeout

	// KindSigning: the provider-token signer failed (e.g. malformed key).
	KindSigning

	// KindRemoteRejection: the gateway processed the request and refused it.
	// The Error carries the gateway's structured Response.
	KindRemoteRejection

	// KindInvalidOptions: notification options failed local validation.
	KindInvalidOptions

	// KindTLS: TLS session establishment failed.
	KindTLS

	// KindRead: reading a key or certificate file from storage failed.
	KindRead
)

// String returns a stable short tag for the kind, used as a metrics and
// log-grouping label.
func (k Kind) String() string {
	switch k {
	case KindSerialize:
		return "serialize"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindSigning:
		return "signing"
	case KindRemoteRejection:
		return "rejected"
	case KindInvalidOptions:
		return "invalid_options"
	case KindTLS:
		return "tls"
	case KindRead:
		return "read"
	}
	return "unknown"
}

// Error is an immutable classified failure. It owns its diagnostic data
// outright; the lower-layer error it was converted from is dropped at the
// conversion point and never retained.
type Error struct {
	kind     Kind
	detail   string
	response *Response
}

// Kind returns the failure category.
func (e *Error) Kind() Kind { return e.kind }

// Detail returns the diagnostic string for the kinds that carry one
// (signing, invalid options, TLS, read). Empty for all other kinds.
func (e *Error) Detail() string { return e.detail }

// Response returns the gateway's structured response. Non-nil only for
// KindRemoteRejection; every other kind means the request never reached a
// point where the gateway issued one.
func (e *Error) Response() *Response { return e.response }

// Description returns the categorical description for the failure. It is a
// pure function of the Kind: two rejections with different reasons produce
// the same description.
func (e *Error) Description() string {
	switch e.kind {
	case KindSerialize:
		return "Error serializing to JSON"
	case KindConnection:
		return "Error connecting to the gateway"
	case KindTimeout:
		return "Timeout in sending a push notification"
	case KindSigning:
		return "Error creating a signature"
	case KindRemoteRejection:
		return "Notification was not accepted by the gateway"
	case KindInvalidOptions:
		return "Invalid options for the notification"
	case KindTLS:
		return "Error in creating a TLS connection"
	case KindRead:
		return "Error in reading a certificate file"
	}
	return "Unknown error"
}

// Error renders the failure for humans. The rejection variant appends the
// gateway's reason when the response carried one; everything else renders
// the static description.
func (e *Error) Error() string {
	if e.kind == KindRemoteRejection && e.response != nil && e.response.Body != nil {
		return fmt.Sprintf("%s (reason: %q)", e.Description(), e.response.Body.Reason)
	}
	return e.Description()
}

// FromJSON converts a JSON encode or decode failure. The underlying error
// is discarded: callers treat all serialization failures uniformly.
func FromJSON(_ error) *Error {
	return &Error{kind: KindSerialize}
}

// FromTransport converts a connection-level failure. As with FromJSON, the
// underlying error is discarded.
func FromTransport(_ error) *Error {
	return &Error{kind: KindConnection}
}

// Timeout reports an elapsed send budget. There is no lower-layer type that
// signals a timeout uniformly, so the deadline-enforcing caller constructs
// this directly.
func Timeout() *Error {
	return &Error{kind: KindTimeout}
}

// FromSigning converts a failure from the token-signing subsystem, keeping
// its message verbatim.
func FromSigning(err error) *Error {
	return &Error{kind: KindSigning, detail: err.Error()}
}

// FromRead converts a failure reading a key or certificate file, keeping
// its message verbatim.
func FromRead(err error) *Error {
	return &Error{kind: KindRead, detail: err.Error()}
}

// FromTLS converts a TLS setup failure, keeping its message verbatim.
func FromTLS(err error) *Error {
	return &Error{kind: KindTLS, detail: err.Error()}
}

// InvalidOptions reports a local option-validation failure. The detail
// names the offending option and why it was rejected.
func InvalidOptions(detail string) *Error {
	return &Error{kind: KindInvalidOptions, detail: detail}
}

// FromResponse converts a gateway rejection, preserving the response
// verbatim. This is the one lossless conversion: the reason is the primary
// signal the caller needs to decide on remediation.
func FromResponse(resp *Response) *Error {
	return &Error{kind: KindRemoteRejection, response: resp}
}
