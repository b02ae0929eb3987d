package bot

import (
	"github.com/liteclaw/webbridge/internal/channels"
	"github.com/liteclaw/webbridge/internal/messages"
	"github.com/liteclaw/webbridge/internal/web"
)

// Conversation is the handler's view of one incoming message and the driver that carried it.
type Conversation struct {
	driver  channels.Driver
	message *messages.IncomingMessage
	matches []string
}

// Message returns the incoming message.
func (c *Conversation) Message() *messages.IncomingMessage { return c.message }

// User returns the sender of the message.
func (c *Conversation) User() messages.User { return c.driver.User(c.message) }

// Answer interprets the message as an answer to a question.
func (c *Conversation) Answer() messages.Answer { return c.driver.ConversationAnswer(c.message) }

// Matches returns the capture groups of the listener pattern.
func (c *Conversation) Matches() []string { return c.matches }

// Reply queues message with optional additional parameters.
func (c *Conversation) Reply(message any, params map[string]any) {
	c.driver.SendPayload(c.driver.BuildServicePayload(message, c.message, params))
}

// Say queues a plain text reply.
func (c *Conversation) Say(text string) {
	c.Reply(messages.NewOutgoingMessage(text), nil)
}

// Typing queues a typing indicator lasting seconds.
func (c *Conversation) Typing(seconds float64) {
	c.Reply(web.NewTypingIndicator(seconds), nil)
}
