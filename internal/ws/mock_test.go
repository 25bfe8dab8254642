package ws_test

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/serroba/crdt-docs/internal/ws"
)

// mockConn is an in-memory Conn for tests. Incoming messages are queued
// with push; everything written is recorded.
type mockConn struct {
	mu       sync.Mutex
	written  []ws.Message
	incoming [][]byte
	closed   bool
}

func newMockConn() *mockConn {
	return &mockConn{}
}

func (m *mockConn) WriteJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("connection closed")
	}

	msg, ok := v.(ws.Message)
	if !ok {
		return errors.New("unexpected message type")
	}

	m.written = append(m.written, msg)

	return nil
}

func (m *mockConn) ReadJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.incoming) == 0 {
		return errors.New("no queued messages")
	}

	data := m.incoming[0]
	m.incoming = m.incoming[1:]

	return json.Unmarshal(data, v)
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

func (m *mockConn) push(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.incoming = append(m.incoming, []byte(raw))
}

func (m *mockConn) Messages() []ws.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ws.Message, len(m.written))
	copy(out, m.written)

	return out
}

func (m *mockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}
