package messages

// WebAccess is implemented by outgoing values that know how to render themselves
// for the web channel.
type WebAccess interface {
	ToWebDriver() map[string]any
}

// OutgoingMessage is a plain text reply with an optional attachment.
type OutgoingMessage struct {
	text       string
	attachment *Attachment
}

// NewOutgoingMessage creates a text reply.
func NewOutgoingMessage(text string) *OutgoingMessage {
	return &OutgoingMessage{text: text}
}

// WithAttachment attaches a to the reply and returns the reply for chaining.
func (m *OutgoingMessage) WithAttachment(a Attachment) *OutgoingMessage {
	m.attachment = &a
	return m
}

// Text returns the reply text.
func (m *OutgoingMessage) Text() string { return m.text }

// Attachment returns the attachment, or nil when the reply is text only.
func (m *OutgoingMessage) Attachment() *Attachment { return m.attachment }

// User describes the sender of an incoming message.
type User struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName,omitempty"`
	LastName  string         `json:"lastName,omitempty"`
	Username  string         `json:"username,omitempty"`
	Info      map[string]any `json:"info,omitempty"`
}

// Answer is an incoming message interpreted as a reply to a pending question.
type Answer struct {
	Text        string
	Value       any
	Message     *IncomingMessage
	Interactive bool
}
