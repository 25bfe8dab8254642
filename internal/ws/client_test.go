package ws_test

import (
	"testing"

	"github.com/serroba/crdt-docs/internal/ws"
)

func TestClient_Send(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	msg := ws.Message{
		Type: ws.MessageTypeAck,
		Payload: ws.AckPayload{
			Applied: []string{"insert:user1:1"},
			Clock:   3,
		},
	}

	err := client.Send(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages := conn.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	if messages[0].Type != ws.MessageTypeAck {
		t.Errorf("expected ack type, got %s", messages[0].Type)
	}
}

func TestClient_SendError(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	err := client.SendError(ws.ErrorCodeAccessDenied, "not allowed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages := conn.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	if messages[0].Type != ws.MessageTypeError {
		t.Errorf("expected error type, got %s", messages[0].Type)
	}
}

func TestClient_Receive_Edit(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	conn.push(`{"type":"edit","payload":{"docId":"doc1","text":"hello"}}`)

	client := ws.NewClient("c1", "user1", conn)

	msg, err := client.Receive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, ok := msg.Payload.(ws.EditPayload)
	if !ok {
		t.Fatalf("expected EditPayload, got %T", msg.Payload)
	}

	if payload.DocID != "doc1" || payload.Text != "hello" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestClient_Receive_Operation(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	conn.push(`{"type":"operation","payload":{"docId":"doc1","type":"insert","id":"u2:1","afterId":"u1:1","value":"x","author":"u2","timestamp":9}}`)

	client := ws.NewClient("c1", "user1", conn)

	msg, err := client.Receive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, ok := msg.Payload.(ws.OperationPayload)
	if !ok {
		t.Fatalf("expected OperationPayload, got %T", msg.Payload)
	}

	if payload.ID != "u2:1" || payload.AfterID == nil || *payload.AfterID != "u1:1" {
		t.Errorf("unexpected payload %+v", payload)
	}

	op, err := payload.Operation()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if op.ID.Author != "u2" || op.ID.Seq != 1 || op.Timestamp != 9 {
		t.Errorf("unexpected operation %+v", op)
	}
}

func TestClient_Receive_Sync(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	conn.push(`{"type":"sync","payload":{"docId":"doc1"}}`)

	client := ws.NewClient("c1", "user1", conn)

	msg, err := client.Receive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, ok := msg.Payload.(ws.SyncPayload)
	if !ok {
		t.Fatalf("expected SyncPayload, got %T", msg.Payload)
	}

	if payload.DocID != "doc1" {
		t.Errorf("expected doc1, got %s", payload.DocID)
	}
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	err := client.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !conn.IsClosed() {
		t.Error("expected connection to be closed")
	}
}

func TestClient_DocID(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("c1", "user1", conn)

	if client.DocID() != "" {
		t.Errorf("expected empty docID, got %s", client.DocID())
	}

	client.SetDocID("doc1")

	if client.DocID() != "doc1" {
		t.Errorf("expected doc1, got %s", client.DocID())
	}
}
