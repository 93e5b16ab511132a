package service

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// handleMessages is the POST /mcp write path. It decodes one JSON-RPC
// message, binds it to a session, and either waits for the matching
// response (requests) or acknowledges immediately (notifications).
// Sessions are established by the initialize request and required for
// everything after it.
func (t *HTTPTransport) handleMessages(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		log.Printf("invalid JSON-RPC message: %v", err)
		http.Error(w, "Invalid JSON-RPC message", http.StatusBadRequest)
		return
	}

	req, isRequestMsg := msg.(*jsonrpc.Request)
	if !isRequestMsg {
		// Responses and unknown frames have no place on the client-to-
		// server path.
		http.Error(w, "Invalid message type", http.StatusBadRequest)
		return
	}

	session, ok := t.resolveSession(w, r, req)
	if !ok {
		return
	}
	t.touchSession(session.id)
	t.startSessionServer(session)

	// A request carries a non-null ID and expects a reply on this same
	// HTTP exchange; a notification is fire-and-forget.
	if req.ID == (jsonrpc.ID{}) {
		if delivered := t.deliver(w, r, session, msg); delivered {
			w.WriteHeader(http.StatusNoContent)
		}
		return
	}
	t.awaitResponse(w, r, session, msg, req.ID)
}

// resolveSession binds a message to its session. Only initialize may run
// without one; it creates the session and advertises the ID through both
// the response header and the legacy cookie.
func (t *HTTPTransport) resolveSession(w http.ResponseWriter, r *http.Request, req *jsonrpc.Request) (*httpSession, bool) {
	isInitialize := req != nil && req.Method == "initialize"

	session, sessionID := t.lookupSession(r)
	if session != nil {
		return session, true
	}
	if !isInitialize {
		if sessionID != "" && r.Header.Get("Mcp-Session-Id") != "" {
			writeSessionError(w, "Invalid session ID")
		} else {
			writeSessionError(w, "Invalid or missing session ID")
		}
		return nil, false
	}

	conn, err := t.Connect(r.Context())
	if err != nil {
		log.Printf("create session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return nil, false
	}
	sessionID = conn.SessionID()

	t.sessionsMu.RLock()
	session = t.sessions[sessionID]
	t.sessionsMu.RUnlock()
	if session == nil {
		http.Error(w, "Failed to retrieve session after creation", http.StatusInternalServerError)
		return nil, false
	}

	w.Header().Set("Mcp-Session-Id", sessionID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return session, true
}

// deliver pushes a message into the session's server read loop. It
// reports false after writing an error response when the client went
// away first.
func (t *HTTPTransport) deliver(w http.ResponseWriter, r *http.Request, session *httpSession, msg jsonrpc.Message) bool {
	select {
	case session.conn.incoming <- msg:
		return true
	case <-r.Context().Done():
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
		return false
	}
}

// awaitResponse delivers a request and blocks until the MCP server
// answers it, the client disconnects, or the request budget runs out.
func (t *HTTPTransport) awaitResponse(w http.ResponseWriter, r *http.Request, session *httpSession, msg jsonrpc.Message, id jsonrpc.ID) {
	waiter := session.conn.registerPending(id)
	defer session.conn.releasePending(id)

	if delivered := t.deliver(w, r, session, msg); !delivered {
		return
	}

	select {
	case resp := <-waiter:
		data, err := jsonrpc.EncodeMessage(resp)
		if err != nil {
			log.Printf("encode response: %v", err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			log.Printf("write response: %v", err)
		}
	case <-r.Context().Done():
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
	case <-time.After(defaultRequestTimeout):
		http.Error(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// writeSessionError reports a session addressing problem as a JSON-RPC
// error with a 400 status.
func writeSessionError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	payload := map[string]any{
		"jsonrpc": "2.0",
		"error": map[string]any{
			"code":    -32000,
			"message": message,
		},
		"id": nil,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32000,"message":"Session error"},"id":null}`))
		return
	}
	_, _ = w.Write(data)
}
