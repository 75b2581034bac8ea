// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport defines the message bus the session package sends
// messages through and receives replies from. The throttle package
// never imports this package: the bus is exactly the "message bus
// transport" external collaborator the throttle spec treats as out of
// scope for the core controller.
package transport

import "context"

// Envelope is a single outgoing message framed for the bus.
type Envelope struct {
	// ID correlates a Reply back to the Envelope that produced it.
	ID   string
	Body []byte
}

// Reply is what comes back for a previously sent Envelope.
type Reply struct {
	ID     string
	Body   []byte
	Errors []string
}

// MessageID implements throttle.Reply.
func (r Reply) MessageID() string { return r.ID }

// HasErrors implements throttle.Reply.
func (r Reply) HasErrors() bool { return len(r.Errors) > 0 }

// Bus sends envelopes and delivers replies asynchronously over
// Replies(). Implementations must be safe for concurrent Send calls;
// Replies() is read by a single consumer goroutine.
type Bus interface {
	// Send dispatches env. It may return before a reply has arrived;
	// the reply, if any, is later delivered on the Replies channel.
	Send(ctx context.Context, env Envelope) error
	// Replies returns the channel replies are delivered on. Closed
	// when the bus is closed.
	Replies() <-chan Reply
	// Close releases any resources held by the bus.
	Close() error
}
