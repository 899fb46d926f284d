package command

import "github.com/louisbranch/marketplace/internal/services/market/domain/event"

// Shared rejection codes used outside individual deciders.
const (
	RejectionCodePayloadDecodeFailed = "PAYLOAD_DECODE_FAILED"
	RejectionCodeInternalFault       = "INTERNAL_FAULT"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a business-rule reason a command changed nothing.
type Rejection struct {
	Code    string
	Message string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// NewEvent builds an event carrying the command's addressing fields.
func NewEvent(cmd Command, eventType event.Type, tokenID string, payloadJSON []byte) event.Event {
	return event.Event{
		Type:        eventType,
		TokenID:     tokenID,
		ActorID:     cmd.Sender,
		RequestID:   cmd.RequestID,
		InputIndex:  cmd.InputIndex,
		PayloadJSON: payloadJSON,
	}
}
