// Package bot is a small conversational engine that drives channel drivers: it resolves the
// driver for a request, dispatches each incoming message to a listener and flushes the replies.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/liteclaw/webbridge/internal/channels"
)

// HandlerFunc handles one incoming message.
type HandlerFunc func(ctx context.Context, conv *Conversation) error

type listener struct {
	pattern *regexp.Regexp
	handler HandlerFunc
}

// Bot routes incoming messages to listeners.
type Bot struct {
	registry *channels.Registry
	logger   zerolog.Logger

	mu        sync.RWMutex
	listeners []listener
	fallback  HandlerFunc
}

// New creates a bot that resolves drivers through registry.
func New(registry *channels.Registry, logger zerolog.Logger) *Bot {
	return &Bot{
		registry: registry,
		logger:   logger.With().Str("component", "bot").Logger(),
	}
}

// Hears registers handler for messages whose whole text matches pattern, ignoring case.
// Listeners are tried in registration order.
func (b *Bot) Hears(pattern string, handler HandlerFunc) error {
	re, err := regexp.Compile("(?i)^(?:" + pattern + ")$")
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener{pattern: re, handler: handler})
	return nil
}

// Fallback sets the handler for messages no listener matched.
func (b *Bot) Fallback(handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallback = handler
}

// Handle runs one request/response cycle. It returns channels.ErrNoDriver when no driver
// claims req. Failures while extracting or handling messages, and cancellation of ctx, are
// logged; the driver still renders its response.
func (b *Bot) Handle(ctx context.Context, req *channels.Request) (*channels.Response, error) {
	driver, err := b.registry.Resolve(req)
	if err != nil {
		return nil, err
	}
	logger := b.logger.With().Str("driver", driver.Name()).Logger()

	msgs, err := driver.Messages()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read incoming messages")
	}

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msg("Request cancelled, skipping remaining messages")
			break
		}

		conv := &Conversation{driver: driver, message: msg}
		handler := b.route(conv)
		if handler == nil {
			logger.Debug().Str("message_id", msg.ID()).Msg("No listener for message")
			continue
		}
		if err := handler(ctx, conv); err != nil {
			logger.Error().Err(err).Str("message_id", msg.ID()).Msg("Message handler failed")
		}
	}

	return driver.MessagesHandled()
}

func (b *Bot) route(conv *Conversation) HandlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()

	text := conv.message.Text()
	for _, l := range b.listeners {
		if m := l.pattern.FindStringSubmatch(text); m != nil {
			conv.matches = m[1:]
			return l.handler
		}
	}
	return b.fallback
}
