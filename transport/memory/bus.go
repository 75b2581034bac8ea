// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memory implements an in-process transport.Bus useful for
// tests and the relaybus-bench CLI: no network, configurable latency
// and error rate, and a fixed random seed for the jitter and failure
// draws. Reply timing still follows real timers.
package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/SudarsanSridharan16/vespa/transport"
)

var errClosed = errors.New("memory: bus closed")

// Bus is an in-memory transport.Bus that starts one goroutine per
// envelope to "process" it after a simulated latency, optionally
// failing it according to errorRate.
type Bus struct {
	replies chan transport.Reply
	closed  chan struct{}
	wg      sync.WaitGroup // in-flight reply goroutines

	latency   time.Duration
	jitter    time.Duration
	errorRate float64
	rngMu     sync.Mutex
	rng       *rand.Rand
}

// New returns a Bus that replies to every send after latency plus a
// random extra delay in [0, jitter), failing a send with probability
// errorRate (0 disables failures).
func New(latency, jitter time.Duration, errorRate float64) *Bus {
	return &Bus{
		replies:   make(chan transport.Reply, 256),
		closed:    make(chan struct{}),
		latency:   latency,
		jitter:    jitter,
		errorRate: errorRate,
		rng:       rand.New(rand.NewSource(1)),
	}
}

// Send implements transport.Bus.
func (b *Bus) Send(ctx context.Context, env transport.Envelope) error {
	select {
	case <-b.closed:
		return errClosed
	default:
	}
	delay := b.latency
	if b.jitter > 0 {
		b.rngMu.Lock()
		delay += time.Duration(b.rng.Int63n(int64(b.jitter)))
		b.rngMu.Unlock()
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-time.After(delay):
		case <-b.closed:
			return
		case <-ctx.Done():
			return
		}

		reply := transport.Reply{ID: env.ID}
		b.rngMu.Lock()
		failed := b.errorRate > 0 && b.rng.Float64() < b.errorRate
		b.rngMu.Unlock()
		if failed {
			reply.Errors = []string{"simulated failure"}
		}
		select {
		case b.replies <- reply:
		case <-b.closed:
		}
	}()
	return nil
}

// Replies implements transport.Bus.
func (b *Bus) Replies() <-chan transport.Reply { return b.replies }

// Close implements transport.Bus. It waits for in-flight reply
// goroutines to stop, then closes the Replies channel.
func (b *Bus) Close() error {
	close(b.closed)
	b.wg.Wait()
	close(b.replies)
	return nil
}
