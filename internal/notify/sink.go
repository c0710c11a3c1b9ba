package notify

import (
	"context"
	"errors"
)

// ErrNoRecipients indicates a notification was warranted but the node has no
// recipient list configured.
var ErrNoRecipients = errors.New("notify: recipient list not set")

// Message is rendered notification content. BodyHTML is optional; sinks that
// cannot carry HTML use BodyPlain.
type Message struct {
	Subject   string
	BodyPlain string
	BodyHTML  string
}

// Sink delivers a message to a set of recipients. Implementations must
// attempt delivery to each recipient independently so one bad address does
// not block the rest.
type Sink interface {
	Send(ctx context.Context, recipients []string, msg Message) error
}

// MultiSink fans a message out to several sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink constructs a MultiSink.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Send forwards the message to all sinks, collecting failures.
func (m *MultiSink) Send(ctx context.Context, recipients []string, msg Message) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, sink := range m.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Send(ctx, recipients, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
