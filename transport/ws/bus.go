// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ws implements transport.Bus over a websocket connection: the
// concrete "message bus transport" a real deployment of a relaybus
// session would use, as opposed to transport/memory's in-process
// stand-in for tests and benchmarks.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/SudarsanSridharan16/vespa/transport"
)

// wireEnvelope is the JSON frame written for each outgoing message.
type wireEnvelope struct {
	ID   string `json:"id"`
	Body []byte `json:"body"`
}

// wireReply is the JSON frame read for each incoming reply.
type wireReply struct {
	ID     string   `json:"id"`
	Body   []byte   `json:"body"`
	Errors []string `json:"errors,omitempty"`
}

// Bus sends one websocket text frame per envelope and reads one text
// frame per reply, dispatching replies to the Replies() channel from a
// single background read loop.
type Bus struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	replies chan transport.Reply

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to a relaybus-compatible websocket endpoint at url.
func Dial(ctx context.Context, url string) (*Bus, error) {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	b := &Bus{
		conn:    conn,
		replies: make(chan transport.Reply, 256),
		done:    make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *Bus) readLoop() {
	defer close(b.replies)
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		var wr wireReply
		if err := json.Unmarshal(data, &wr); err != nil {
			continue
		}
		reply := transport.Reply{ID: wr.ID, Body: wr.Body, Errors: wr.Errors}
		select {
		case b.replies <- reply:
		case <-b.done:
			return
		}
	}
}

// Send implements transport.Bus.
func (b *Bus) Send(_ context.Context, env transport.Envelope) error {
	payload, err := json.Marshal(wireEnvelope{ID: env.ID, Body: env.Body})
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", env.ID, err)
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteMessage(websocket.TextMessage, payload)
}

// Replies implements transport.Bus.
func (b *Bus) Replies() <-chan transport.Reply { return b.replies }

// Close implements transport.Bus.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.conn.Close()
	})
	return err
}
