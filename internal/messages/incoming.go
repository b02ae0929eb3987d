package messages

import (
	"github.com/google/uuid"
)

// IncomingMessage is the canonical inbound unit handed to the engine.
// Drivers build it once per request and hand out the same pointer on every lookup,
// so context the engine stashes through SetExtra stays visible for the whole request.
type IncomingMessage struct {
	id        string
	text      string
	sender    string
	recipient string
	payload   map[string]any

	images []Attachment
	audio  []Attachment
	videos []Attachment
	files  []Attachment

	extras map[string]any
}

// NewIncomingMessage creates a message with empty attachment collections.
func NewIncomingMessage(text, sender, recipient string, payload map[string]any) *IncomingMessage {
	if payload == nil {
		payload = map[string]any{}
	}
	return &IncomingMessage{
		id:        uuid.NewString(),
		text:      text,
		sender:    sender,
		recipient: recipient,
		payload:   payload,
		images:    []Attachment{},
		audio:     []Attachment{},
		videos:    []Attachment{},
		files:     []Attachment{},
		extras:    map[string]any{},
	}
}

// ID returns a per-message identifier used for log correlation.
func (m *IncomingMessage) ID() string { return m.id }

func (m *IncomingMessage) Text() string               { return m.text }
func (m *IncomingMessage) Sender() string             { return m.sender }
func (m *IncomingMessage) Recipient() string          { return m.recipient }
func (m *IncomingMessage) Payload() map[string]any    { return m.payload }
func (m *IncomingMessage) Images() []Attachment       { return m.images }
func (m *IncomingMessage) Audio() []Attachment        { return m.audio }
func (m *IncomingMessage) Videos() []Attachment       { return m.videos }
func (m *IncomingMessage) Files() []Attachment        { return m.files }
func (m *IncomingMessage) Extras() map[string]any     { return m.extras }
func (m *IncomingMessage) Extra(key string) any       { return m.extras[key] }
func (m *IncomingMessage) SetExtra(key string, v any) { m.extras[key] = v }

// Attachments returns the collection for kind, or nil for kinds that have none.
func (m *IncomingMessage) Attachments(kind AttachmentKind) []Attachment {
	switch kind {
	case KindImage:
		return m.images
	case KindAudio:
		return m.audio
	case KindVideo:
		return m.videos
	case KindFile:
		return m.files
	}
	return nil
}

// SetAttachments stores items under kind and forces the text to the kind's placeholder.
// It reports false, leaving the message untouched, for kinds that cannot be uploaded.
func (m *IncomingMessage) SetAttachments(kind AttachmentKind, items []Attachment) bool {
	if items == nil {
		items = []Attachment{}
	}
	switch kind {
	case KindImage:
		m.images = items
	case KindAudio:
		m.audio = items
	case KindVideo:
		m.videos = items
	case KindFile:
		m.files = items
	default:
		return false
	}
	m.text = kind.Pattern()
	return true
}

// HasAttachments reports whether any attachment collection is non-empty.
func (m *IncomingMessage) HasAttachments() bool {
	return len(m.images)+len(m.audio)+len(m.videos)+len(m.files) > 0
}
