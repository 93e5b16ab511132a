package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// httpConnection adapts the SDK's bidirectional connection model to HTTP
// round-trips. Inbound client messages and outbound notifications travel
// on separate buffered channels so a caller blocked on one request never
// absorbs unrelated traffic; responses to a specific request are routed
// through the pending map keyed by JSON-RPC ID.
type httpConnection struct {
	sessionID     string
	incoming      chan jsonrpc.Message
	notifications chan jsonrpc.Message
	closed        chan struct{}
	// ready carries a single signal once the MCP server has started
	// reading from this connection.
	ready     chan struct{}
	readyOnce sync.Once

	mu       sync.Mutex
	isClosed bool

	pendingMu sync.Mutex
	pending   map[jsonrpc.ID]chan jsonrpc.Message
}

// Read blocks until the next client message arrives over HTTP. The first
// call marks the connection ready, which unblocks request handling that
// waited for the server loop to attach.
func (c *httpConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	c.readyOnce.Do(func() {
		select {
		case c.ready <- struct{}{}:
		default:
		}
	})

	select {
	case msg, ok := <-c.incoming:
		if !ok {
			return nil, fmt.Errorf("connection closed")
		}
		return msg, nil
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write routes a server-originated message. Responses carrying a known
// request ID go to the HTTP handler waiting on that request; everything
// else (notifications, unmatched responses) goes to the SSE stream.
func (c *httpConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	if resp, ok := msg.(*jsonrpc.Response); ok && resp.ID != (jsonrpc.ID{}) {
		c.pendingMu.Lock()
		waiter, found := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if found {
			return c.send(ctx, waiter, msg)
		}
	}
	return c.send(ctx, c.notifications, msg)
}

// send delivers msg to ch unless the connection closes or ctx expires
// first. The closed flag is re-checked immediately before the channel
// write so Close cannot race a send into a closed channel.
func (c *httpConnection) send(ctx context.Context, ch chan jsonrpc.Message, msg jsonrpc.Message) error {
	c.mu.Lock()
	closed := c.isClosed
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("connection closed")
	}

	select {
	case ch <- msg:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the connection down and unblocks every waiter: the server
// read loop, SSE streams, and any HTTP handlers parked on a pending
// request. Safe to call more than once.
func (c *httpConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return nil
	}
	c.isClosed = true
	close(c.closed)
	close(c.incoming)
	close(c.notifications)

	c.pendingMu.Lock()
	for _, waiter := range c.pending {
		close(waiter)
	}
	c.pending = nil
	c.pendingMu.Unlock()

	return nil
}

func (c *httpConnection) SessionID() string {
	return c.sessionID
}

// registerPending associates a request ID with a response channel until
// releasePending removes it.
func (c *httpConnection) registerPending(id jsonrpc.ID) chan jsonrpc.Message {
	waiter := make(chan jsonrpc.Message, 1)
	c.pendingMu.Lock()
	if c.pending != nil {
		c.pending[id] = waiter
	}
	c.pendingMu.Unlock()
	return waiter
}

func (c *httpConnection) releasePending(id jsonrpc.ID) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}
