package bot

import (
	"context"
	"fmt"
	"regexp"

	"github.com/liteclaw/webbridge/internal/messages"
)

var uploadKinds = []messages.AttachmentKind{
	messages.KindImage,
	messages.KindAudio,
	messages.KindVideo,
	messages.KindFile,
}

// RegisterDefaults installs the built-in listeners: ping, typing, help, attachment
// summaries and an echo fallback.
func RegisterDefaults(b *Bot) error {
	if err := b.Hears("ping", func(_ context.Context, conv *Conversation) error {
		conv.Say("pong")
		return nil
	}); err != nil {
		return err
	}

	if err := b.Hears("typing", func(_ context.Context, conv *Conversation) error {
		conv.Typing(1)
		conv.Say("Done typing.")
		return nil
	}); err != nil {
		return err
	}

	if err := b.Hears("help", func(_ context.Context, conv *Conversation) error {
		q := messages.NewQuestion("What can I do for you?").AddButtons(
			messages.NewButton("Ping").WithValue("ping"),
			messages.NewButton("Typing").WithValue("typing"),
		)
		q.Fallback = "Try ping or typing."
		q.CallbackID = "help"
		conv.Reply(q, nil)
		return nil
	}); err != nil {
		return err
	}

	for _, kind := range uploadKinds {
		if err := b.Hears(regexp.QuoteMeta(kind.Pattern()), attachmentSummary(kind)); err != nil {
			return err
		}
	}

	b.Fallback(func(_ context.Context, conv *Conversation) error {
		if answer := conv.Answer(); answer.Interactive {
			conv.Say(fmt.Sprintf("You picked %v.", answer.Value))
			return nil
		}
		conv.Say("You said: " + conv.Message().Text())
		return nil
	})
	return nil
}

func attachmentSummary(kind messages.AttachmentKind) HandlerFunc {
	return func(_ context.Context, conv *Conversation) error {
		items := conv.Message().Attachments(kind)
		reply := messages.NewOutgoingMessage(fmt.Sprintf("Received %d %s attachment(s).", len(items), kind))
		if len(items) > 0 {
			reply.WithAttachment(items[0])
		}
		conv.Reply(reply, nil)
		return nil
	}
}
