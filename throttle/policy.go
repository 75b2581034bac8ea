// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package throttle implements pending-message admission control for a
// message-bus client session: given how many sent messages are still
// awaiting a reply, should the next one be dispatched right now.
package throttle

import "math"

// Message is the minimal view of an outgoing message the throttle needs.
type Message interface {
	// ID uniquely identifies the message within its session.
	ID() string
}

// Reply is the minimal view of a reply the throttle needs.
type Reply interface {
	// MessageID identifies the message this is a reply to.
	MessageID() string
	// HasErrors reports whether the reply carries an error. Only
	// error-free replies count as useful throughput.
	HasErrors() bool
}

// Policy decides whether a session may dispatch another message given
// its current number of outstanding replies, and observes the
// lifecycle of sends and replies to adapt that decision over time.
type Policy interface {
	// CanSend reports whether one more message may be sent given
	// pendingCount outstanding replies.
	CanSend(msg Message, pendingCount int) bool
	// ProcessMessage must be called once for every message admitted by
	// a prior CanSend call that returned true.
	ProcessMessage(msg Message)
	// ProcessReply must be called once for every reply received.
	ProcessReply(reply Reply)
	// MaxPendingCount returns the current ceiling on pending messages,
	// for reporting purposes.
	MaxPendingCount() int
}

var _ Policy = (*StaticPolicy)(nil)

// StaticPolicy is a hard ceiling on the number of pending messages. It
// is the base policy that DynamicPolicy consumes: DynamicPolicy never
// admits a send that StaticPolicy would deny, and tightening
// StaticPolicy's ceiling also tightens DynamicPolicy's window (see
// DynamicPolicy.SetMaxPendingCount).
type StaticPolicy struct {
	maxPendingCount int
}

// NewStaticPolicy returns a StaticPolicy with no ceiling (math.MaxInt32).
func NewStaticPolicy() *StaticPolicy {
	return &StaticPolicy{maxPendingCount: math.MaxInt32}
}

// CanSend implements Policy.
func (p *StaticPolicy) CanSend(_ Message, pendingCount int) bool {
	return pendingCount < p.maxPendingCount
}

// ProcessMessage implements Policy. The static policy does not react
// to sends.
func (p *StaticPolicy) ProcessMessage(_ Message) {}

// ProcessReply implements Policy. The static policy does not react to
// replies.
func (p *StaticPolicy) ProcessReply(_ Reply) {}

// MaxPendingCount implements Policy.
func (p *StaticPolicy) MaxPendingCount() int {
	return p.maxPendingCount
}

// SetMaxPendingCount sets the hard ceiling on pending messages allowed
// at any time. Returns the receiver to allow chaining.
func (p *StaticPolicy) SetMaxPendingCount(n int) *StaticPolicy {
	p.maxPendingCount = n
	return p
}
