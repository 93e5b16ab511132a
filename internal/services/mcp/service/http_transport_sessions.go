package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// sessionCookieName is the legacy fallback for clients that do not echo
// the Mcp-Session-Id header.
const sessionCookieName = "mcp_session"

// Connect implements mcp.Transport. Each call mints a fresh session with
// its own connection, so concurrent clients never share channel state.
func (t *HTTPTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	sessionID := t.generateSessionID()

	conn := &httpConnection{
		sessionID:     sessionID,
		incoming:      make(chan jsonrpc.Message, defaultChannelBufferSize),
		notifications: make(chan jsonrpc.Message, defaultChannelBufferSize),
		closed:        make(chan struct{}),
		ready:         make(chan struct{}, 1),
		pending:       make(map[jsonrpc.ID]chan jsonrpc.Message),
	}

	now := time.Now()
	t.sessionsMu.Lock()
	t.sessions[sessionID] = &httpSession{
		id:        sessionID,
		conn:      conn,
		createdAt: now,
		lastUsed:  now,
	}
	t.sessionsMu.Unlock()

	return conn, nil
}

// lookupSession resolves the session addressed by a request, trying the
// Mcp-Session-Id header first and the legacy cookie second. A request
// carrying neither yields an empty ID.
func (t *HTTPTransport) lookupSession(r *http.Request) (*httpSession, string) {
	sessionID := strings.TrimSpace(r.Header.Get("Mcp-Session-Id"))
	if sessionID == "" {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie != nil {
			sessionID = cookie.Value
		}
	}
	if sessionID == "" {
		return nil, ""
	}

	t.sessionsMu.RLock()
	session := t.sessions[sessionID]
	t.sessionsMu.RUnlock()
	return session, sessionID
}

// touchSession refreshes a session's idle timer so the janitor does not
// sweep sessions with live traffic.
func (t *HTTPTransport) touchSession(sessionID string) {
	t.sessionsMu.Lock()
	if session := t.sessions[sessionID]; session != nil {
		session.lastUsed = time.Now()
	}
	t.sessionsMu.Unlock()
}

// sweepSessions closes and drops sessions idle past the expiration
// window. It runs until ctx is cancelled.
func (t *HTTPTransport) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.expireSessions(time.Now().Add(-sessionExpirationTime))
		}
	}
}

// expireSessions closes and removes every session last used before
// cutoff, including its serverOnce entry so a reused ID gets a fresh
// server attach.
func (t *HTTPTransport) expireSessions(cutoff time.Time) {
	t.sessionsMu.Lock()
	defer t.sessionsMu.Unlock()

	t.serverOnceMu.Lock()
	defer t.serverOnceMu.Unlock()

	for id, session := range t.sessions {
		if session.lastUsed.Before(cutoff) {
			session.conn.Close()
			delete(t.sessions, id)
			delete(t.serverOnce, id)
		}
	}
}

// startSessionServer attaches the MCP server to a session's connection,
// at most once per session. It then waits briefly for the server loop to
// begin reading; when the wait times out the first message delivery will
// complete the handshake instead.
func (t *HTTPTransport) startSessionServer(session *httpSession) {
	if t.server == nil {
		return
	}

	t.serverOnceMu.Lock()
	once := t.serverOnce[session.id]
	if once == nil {
		once = &sync.Once{}
		t.serverOnce[session.id] = once
	}
	t.serverOnceMu.Unlock()

	once.Do(func() {
		go func() {
			serverSession, err := t.server.Connect(t.serverCtx, &boundTransport{conn: session.conn}, nil)
			if err != nil {
				log.Printf("connect MCP server for session %s: %v", session.id, err)
				return
			}
			_ = serverSession.Wait()
		}()
	})

	select {
	case <-session.conn.ready:
	case <-t.readyAfterOrDefault()(t.serverReadyTimeoutOrDefault()):
	case <-t.serverCtx.Done():
	}
}

func (t *HTTPTransport) readyAfterOrDefault() func(time.Duration) <-chan time.Time {
	if t == nil || t.readyAfter == nil {
		return time.After
	}
	return t.readyAfter
}

func (t *HTTPTransport) serverReadyTimeoutOrDefault() time.Duration {
	if t == nil || t.serverReadyTimeout <= 0 {
		return defaultSessionReadyTimeout
	}
	return t.serverReadyTimeout
}

// boundTransport hands the MCP server a connection that already exists,
// so Server.Connect can drive a session created by the HTTP layer.
type boundTransport struct {
	conn mcp.Connection
}

func (bt *boundTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	return bt.conn, nil
}

func (t *HTTPTransport) generateSessionID() string {
	randomReader := rand.Read
	if t != nil && t.randomReader != nil {
		randomReader = t.randomReader
	}
	return generateSessionIDWithRandomRead(randomReader)
}

var sessionCounter atomic.Uint64

// generateSessionID produces a unique session identifier from random
// bytes plus a process-wide counter.
func generateSessionID() string {
	return generateSessionIDWithRandomRead(rand.Read)
}

func generateSessionIDWithRandomRead(randomRead func([]byte) (int, error)) string {
	if randomRead == nil {
		randomRead = rand.Read
	}
	counter := sessionCounter.Add(1)
	b := make([]byte, 8)
	if _, err := randomRead(b); err != nil {
		// Entropy failure still needs a usable ID.
		return fmt.Sprintf("session_%d_%d", time.Now().UnixNano(), counter)
	}
	return fmt.Sprintf("session_%s_%d", hex.EncodeToString(b), counter)
}
