// Package web implements the web channel driver: a chat payload posted over HTTP is
// answered by a single JSON envelope holding every reply the engine produced.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/liteclaw/webbridge/internal/channels"
	"github.com/liteclaw/webbridge/internal/messages"
)

// DriverName is the name the web driver registers under.
const DriverName = "Web"

// Config holds web driver configuration.
type Config struct {
	// MatchingData must all be present, with equal values, in a request body
	// for the driver to claim it.
	MatchingData map[string]string
	Attachments  DecoderConfig
}

// Driver is the web channel driver. One instance serves one request cycle at a time.
type Driver struct {
	config    Config
	logger    zerolog.Logger
	extractor *Extractor

	event    map[string]any
	files    []any
	messages []*messages.IncomingMessage
	cycle    cycle
}

var _ channels.Driver = (*Driver)(nil)

// NewDriver creates a web driver.
func NewDriver(cfg Config, logger zerolog.Logger) *Driver {
	return &Driver{
		config:    cfg,
		logger:    logger.With().Str("driver", DriverName).Logger(),
		extractor: NewExtractor(NewDecoder(cfg.Attachments)),
		event:     map[string]any{},
		cycle:     newCycle(),
	}
}

// NewFactory returns a factory producing drivers that share cfg.
func NewFactory(cfg Config, logger zerolog.Logger) channels.Factory {
	return func() channels.Driver {
		return NewDriver(cfg, logger)
	}
}

func (d *Driver) Name() string               { return DriverName }
func (d *Driver) Type() channels.ChannelType { return channels.ChannelTypeWeb }

// Phase returns the driver's position in the current cycle.
func (d *Driver) Phase() Phase { return d.cycle.phase }

// Status returns the status code the current cycle will answer with.
func (d *Driver) Status() int { return d.cycle.status }

// ErrorMessage returns the last error recorded during the current cycle.
func (d *Driver) ErrorMessage() string { return d.cycle.errorMessage }

// Load starts a new cycle for req, discarding all state from the previous one.
func (d *Driver) Load(req *channels.Request) {
	d.event = map[string]any{}
	d.files = nil
	if req != nil {
		if req.Body != nil {
			d.event = req.Body
		}
		d.files = req.Files
	}
	d.messages = nil
	d.cycle = newCycle()
}

// MatchesRequest reports whether the loaded body carries the configured matching data.
func (d *Driver) MatchesRequest() bool {
	ok := Matches(d.config.MatchingData, d.event)
	if ok {
		d.cycle.advance(PhaseMatched)
	}
	return ok
}

// Messages returns the incoming message of the loaded request. The message is built on
// the first call; later calls return the same instance.
func (d *Driver) Messages() ([]*messages.IncomingMessage, error) {
	if d.messages != nil {
		return d.messages, nil
	}
	d.cycle.advance(PhaseExtracting)

	msg, err := d.extractor.Extract(d.event, d.files)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrAttachmentTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		d.cycle.fail(status, err.Error())
		d.logger.Warn().Err(err).Int("status", status).Msg("Failed to extract incoming message")
		return nil, err
	}
	d.logger.Debug().
		Str("message_id", msg.ID()).
		Str("sender", msg.Sender()).
		Int("files", len(d.files)).
		Msg("Incoming message extracted")

	d.messages = []*messages.IncomingMessage{msg}
	return d.messages, nil
}

// ConversationAnswer interprets msg as an answer. The answer value falls back to the text.
func (d *Driver) ConversationAnswer(msg *messages.IncomingMessage) messages.Answer {
	var text string
	if msg != nil {
		text = msg.Text()
	}
	value, ok := d.event[FieldValue]
	if !ok {
		value = text
	}
	return messages.Answer{
		Text:        text,
		Value:       value,
		Message:     msg,
		Interactive: parseInteractive(d.event[FieldInteractive]),
	}
}

// User returns the sender of msg.
func (d *Driver) User(msg *messages.IncomingMessage) messages.User {
	if msg == nil {
		return messages.User{}
	}
	return messages.User{ID: msg.Sender()}
}

// IsBot reports false: web requests always come from people.
func (d *Driver) IsBot() bool { return false }

// IsConfigured reports false: the web channel has no outbound API credentials.
func (d *Driver) IsConfigured() bool { return false }

// BuildServicePayload wraps message for SendPayload. Values that are neither text
// replies nor WebAccess mark the cycle as failed with status 500, but a payload is
// still returned and processing goes on.
func (d *Driver) BuildServicePayload(message any, matching *messages.IncomingMessage, additional map[string]any) channels.Payload {
	resolved, kind := classify(message)
	if kind == channels.PayloadUnsupported {
		d.cycle.fail(http.StatusInternalServerError, errUnsupportedMessageType)
		d.logger.Warn().Str("type", fmt.Sprintf("%T", message)).Msg("Unsupported message type")
	}

	params := make(map[string]any, len(additional))
	for k, v := range additional {
		params[k] = v
	}

	return channels.Payload{
		Kind:                 kind,
		Message:              resolved,
		AdditionalParameters: params,
	}
}

// SendPayload queues payload for the response.
func (d *Driver) SendPayload(payload channels.Payload) {
	d.cycle.enqueue(payload)
}

// SendRequest is not available on the web channel.
func (d *Driver) SendRequest(ctx context.Context, endpoint string, params map[string]any, matching *messages.IncomingMessage) error {
	return channels.ErrSendRequestUnsupported
}

// MessagesHandled serializes the queued replies and resets the queue.
func (d *Driver) MessagesHandled() (*channels.Response, error) {
	status, errorMessage := d.cycle.status, d.cycle.errorMessage
	envelope := Render(status, errorMessage, d.cycle.drain())

	body, err := json.Marshal(envelope)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to encode reply envelope")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{
			Status:   status,
			Messages: []map[string]any{},
			Error:    "failed to encode replies",
		})
	}

	d.logger.Debug().
		Int("status", status).
		Int("replies", len(envelope.Messages)).
		Msg("Replies sent")

	return &channels.Response{
		StatusCode: status,
		Header:     ResponseHeader(),
		Body:       body,
	}, nil
}
