// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session implements the source session a message-bus client
// uses to dispatch messages: it is the "enclosing source-session" the
// throttle spec treats as an external collaborator, tracking pending
// counts and handing replies to the configured throttle.Policy.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SudarsanSridharan16/vespa/throttle"
	"github.com/SudarsanSridharan16/vespa/transport"
	"github.com/SudarsanSridharan16/vespa/utils/logging"
)

// pollInterval is how often a blocked Send re-checks CanSend while
// waiting for a pending slot to free up.
const pollInterval = time.Millisecond

// message adapts a generated correlation ID to throttle.Message.
type message struct{ id string }

func (m message) ID() string { return m.id }

// Session dispatches messages through a transport.Bus, gated by a
// throttle.Policy. Send is safe for concurrent use by many caller
// goroutines; internally the three throttle.Policy calls are
// always serialized behind mu, upholding the policy's single-driver
// contract even though replies arrive on their own goroutine.
type Session struct {
	policy throttle.Policy
	bus    transport.Bus
	log    logging.Logger

	mu sync.Mutex // serializes CanSend/ProcessMessage/ProcessReply

	pendingMu sync.Mutex
	pending   map[string]struct{}

	wg sync.WaitGroup
}

// New starts a Session driving policy over bus, logging through log.
// It immediately starts a background goroutine draining bus.Replies().
func New(policy throttle.Policy, bus transport.Bus, log logging.Logger) *Session {
	if log == nil {
		log = logging.NoLog{}
	}
	s := &Session{
		policy:  policy,
		bus:     bus,
		log:     log,
		pending: make(map[string]struct{}),
	}
	s.wg.Add(1)
	go s.receiveLoop()
	return s
}

func (s *Session) receiveLoop() {
	defer s.wg.Done()
	for reply := range s.bus.Replies() {
		s.mu.Lock()
		s.policy.ProcessReply(reply)
		s.mu.Unlock()

		s.pendingMu.Lock()
		delete(s.pending, reply.MessageID())
		s.pendingMu.Unlock()

		id := logging.Sanitize(reply.MessageID())
		if reply.HasErrors() {
			s.log.Warn("reply carried errors", zap.String("messageID", id))
		} else {
			s.log.Debug("reply ok", zap.String("messageID", id))
		}
	}
}

func (s *Session) pendingCount() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// Send blocks until the throttle admits one more outstanding message,
// then dispatches body over the bus. It returns once the send has been
// handed to the bus, not once a reply has arrived. Blocks on ctx.
func (s *Session) Send(ctx context.Context, body []byte) (id string, err error) {
	id = uuid.NewString()
	msg := message{id: id}

	for {
		s.mu.Lock()
		admitted := s.policy.CanSend(msg, s.pendingCount())
		if admitted {
			s.policy.ProcessMessage(msg)
			s.pendingMu.Lock()
			s.pending[id] = struct{}{}
			s.pendingMu.Unlock()
		}
		s.mu.Unlock()

		if admitted {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	if err := s.bus.Send(ctx, transport.Envelope{ID: id, Body: body}); err != nil {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
		return "", fmt.Errorf("send %s: %w", id, err)
	}
	s.log.Trace("sent", zap.String("messageID", id))
	return id, nil
}

// SendAll dispatches bodies concurrently (fan-out capped by
// concurrency) and waits for all to have been handed to the bus,
// returning the first error encountered, if any. Concurrency mirrors
// how a load generator would drive many sends against one throttled
// session at once.
func (s *Session) SendAll(ctx context.Context, bodies [][]byte, concurrency int) error {
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, body := range bodies {
		body := body
		g.Go(func() error {
			_, err := s.Send(gctx, body)
			return err
		})
	}
	return g.Wait()
}

// PendingCount returns the current number of sent-but-unreplied messages.
func (s *Session) PendingCount() int { return s.pendingCount() }

// MaxPendingCount reports the policy's current ceiling, for reporting.
func (s *Session) MaxPendingCount() int { return s.policy.MaxPendingCount() }

// Close stops the background reply loop and closes the underlying bus.
func (s *Session) Close() error {
	err := s.bus.Close()
	s.wg.Wait()
	return err
}
