package web

import (
	"net/http"
	"reflect"

	"github.com/liteclaw/webbridge/internal/channels"
	"github.com/liteclaw/webbridge/internal/messages"
)

// Envelope is the JSON body returned for every web request.
type Envelope struct {
	Status   int              `json:"status"`
	Messages []map[string]any `json:"messages"`
	Error    string           `json:"error,omitempty"`
}

// classify resolves the kind of an outgoing value once, wrapping bare strings
// into text replies.
func classify(message any) (any, channels.PayloadKind) {
	switch m := message.(type) {
	case messages.WebAccess:
		if isNilPointer(m) {
			return message, channels.PayloadUnsupported
		}
		return m, channels.PayloadWebAccess
	case *messages.OutgoingMessage:
		if m == nil {
			return message, channels.PayloadUnsupported
		}
		return m, channels.PayloadText
	case messages.OutgoingMessage:
		return &m, channels.PayloadText
	case string:
		return messages.NewOutgoingMessage(m), channels.PayloadText
	}
	return message, channels.PayloadUnsupported
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// BuildReply renders payloads in order. Every entry carries additionalParameters;
// entries of unsupported kind render as nothing else.
func BuildReply(payloads []channels.Payload) []map[string]any {
	out := make([]map[string]any, 0, len(payloads))
	for _, p := range payloads {
		reply := renderMessage(p)
		params := p.AdditionalParameters
		if params == nil {
			params = map[string]any{}
		}
		reply["additionalParameters"] = params
		out = append(out, reply)
	}
	return out
}

func renderMessage(p channels.Payload) map[string]any {
	switch p.Kind {
	case channels.PayloadWebAccess:
		wa, ok := p.Message.(messages.WebAccess)
		if !ok {
			break
		}
		src := wa.ToWebDriver()
		reply := make(map[string]any, len(src)+1)
		for k, v := range src {
			reply[k] = v
		}
		return reply
	case channels.PayloadText:
		om, ok := p.Message.(*messages.OutgoingMessage)
		if !ok {
			break
		}
		var attachment any
		if a := om.Attachment(); a != nil {
			attachment = a.ToWebDriver()
		}
		return map[string]any{
			"type":       "text",
			"text":       om.Text(),
			"attachment": attachment,
		}
	}
	return map[string]any{}
}

// Render builds the envelope for a finished cycle.
func Render(status int, errorMessage string, payloads []channels.Payload) Envelope {
	return Envelope{
		Status:   status,
		Messages: BuildReply(payloads),
		Error:    errorMessage,
	}
}

// ResponseHeader returns the headers sent with every envelope.
func ResponseHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Origin", "*")
	return h
}
