package web

import (
	"net/http"

	"github.com/liteclaw/webbridge/internal/channels"
)

// Phase is the position of a driver within one request cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMatched
	PhaseExtracting
	PhaseCollecting
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMatched:
		return "matched"
	case PhaseExtracting:
		return "extracting"
	case PhaseCollecting:
		return "collecting"
	case PhaseFinalized:
		return "finalized"
	}
	return "unknown"
}

const errUnsupportedMessageType = "Unsupported message type."

// cycle is the mutable state of one request/response cycle.
// Once failed, the status stays failed until the next reset.
type cycle struct {
	phase        Phase
	replies      []channels.Payload
	status       int
	errorMessage string
}

func newCycle() cycle {
	return cycle{
		phase:   PhaseIdle,
		replies: []channels.Payload{},
		status:  http.StatusOK,
	}
}

func (c *cycle) advance(p Phase) {
	if p > c.phase {
		c.phase = p
	}
}

func (c *cycle) fail(status int, message string) {
	c.status = status
	c.errorMessage = message
}

func (c *cycle) enqueue(p channels.Payload) {
	c.replies = append(c.replies, p)
	c.advance(PhaseCollecting)
}

// drain hands out the collected replies and empties the list.
func (c *cycle) drain() []channels.Payload {
	replies := c.replies
	c.replies = []channels.Payload{}
	c.phase = PhaseFinalized
	return replies
}
