package web

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/liteclaw/webbridge/internal/messages"
)

// Request body fields read by the extractor.
const (
	FieldMessage     = "message"
	FieldUserID      = "userId"
	FieldSender      = "sender"
	FieldAttachment  = "attachment"
	FieldInteractive = "interactive"
	FieldValue       = "value"
)

// Extractor builds the canonical incoming message from a request body.
type Extractor struct {
	decoder *Decoder
}

// NewExtractor creates an extractor that decodes uploads with decoder.
func NewExtractor(decoder *Decoder) *Extractor {
	if decoder == nil {
		decoder = NewDecoder(DecoderConfig{ProbeMime: true})
	}
	return &Extractor{decoder: decoder}
}

// Extract reads message, userId and sender (defaulting to userId) from body. When the
// attachment field names an uploadable kind, every file is decoded in order, the text
// becomes that kind's placeholder and the decoded list is stored under the kind.
// Any decoding failure aborts extraction.
func (e *Extractor) Extract(body map[string]any, files []any) (*messages.IncomingMessage, error) {
	userID := stringField(body, FieldUserID)
	sender := userID
	if raw, ok := body[FieldSender]; ok && raw != nil {
		sender = cast.ToString(raw)
	}

	msg := messages.NewIncomingMessage(stringField(body, FieldMessage), sender, userID, body)

	kind, ok := messages.ParseUploadKind(stringField(body, FieldAttachment))
	if !ok {
		return msg, nil
	}

	items := make([]messages.Attachment, 0, len(files))
	for i, file := range files {
		uri, err := e.decoder.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("decode %s attachment %d: %w", kind, i, err)
		}
		items = append(items, messages.NewAttachment(kind, uri))
	}
	msg.SetAttachments(kind, items)

	return msg, nil
}

func stringField(body map[string]any, key string) string {
	if body == nil {
		return ""
	}
	return cast.ToString(body[key])
}

// parseInteractive mirrors how browsers post booleans: the strings "false" and "0"
// are false and any other string is true; other values are cast to bool.
func parseInteractive(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case string:
		return v != "false" && v != "0"
	default:
		return cast.ToBool(v)
	}
}
