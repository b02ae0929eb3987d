// Package channels provides the driver framework.
package channels

import (
	"context"
	"errors"

	"github.com/liteclaw/webbridge/internal/messages"
)

var (
	// ErrNoDriver is returned when no registered driver claims a request.
	ErrNoDriver = errors.New("no driver matches the request")

	// ErrSendRequestUnsupported is returned by drivers without an outbound API.
	ErrSendRequestUnsupported = errors.New("driver does not support API requests")
)

// Driver is the contract the engine drives for one request/response cycle.
//
// The engine calls, in order: Load, MatchesRequest, Messages (any number of times),
// BuildServicePayload and SendPayload once per reply, and finally MessagesHandled.
// Implementations are request-scoped and are not safe for concurrent use.
type Driver interface {
	// Metadata
	Name() string
	Type() ChannelType

	// Inbound
	Load(req *Request)
	MatchesRequest() bool
	Messages() ([]*messages.IncomingMessage, error)
	ConversationAnswer(msg *messages.IncomingMessage) messages.Answer
	User(msg *messages.IncomingMessage) messages.User
	IsBot() bool
	IsConfigured() bool

	// Outbound
	BuildServicePayload(message any, matching *messages.IncomingMessage, additional map[string]any) Payload
	SendPayload(payload Payload)
	SendRequest(ctx context.Context, endpoint string, params map[string]any, matching *messages.IncomingMessage) error
	MessagesHandled() (*Response, error)
}

// Factory creates a fresh driver instance for a request.
type Factory func() Driver
