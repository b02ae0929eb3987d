// Package channels provides the driver framework that connects the bot engine to transports.
// Drivers act as translators between a transport's payloads and the canonical message model,
// and the engine only ever talks to them through the Driver interface.
package channels

import (
	"net/http"
)

// ChannelType represents supported channel types.
type ChannelType string

const (
	ChannelTypeWeb ChannelType = "web"
)

// Request is the transport-neutral view of one inbound HTTP request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	// Body holds the decoded form or JSON fields.
	Body map[string]any
	// Files holds uploaded file handles in the order they appeared on the wire.
	Files []any
}

// Field returns the body value for key, or nil.
func (r *Request) Field(key string) any {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body[key]
}

// Response is a fully rendered reply for the transport to write verbatim.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// PayloadKind classifies an outgoing value once, when its payload is built.
type PayloadKind int

const (
	PayloadUnsupported PayloadKind = iota
	PayloadText
	PayloadWebAccess
)

// String returns a readable name for logs.
func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadWebAccess:
		return "web_access"
	default:
		return "unsupported"
	}
}

// Payload pairs an outgoing value with the parameters the caller attached to it.
type Payload struct {
	Kind                 PayloadKind    `json:"-"`
	Message              any            `json:"message"`
	AdditionalParameters map[string]any `json:"additionalParameters"`
}

// DriverStatus represents a registered driver for status APIs.
type DriverStatus struct {
	Name       string      `json:"name"`
	Type       ChannelType `json:"type"`
	Configured bool        `json:"configured"`
	Matched    int64       `json:"matched"`
}
