package ws

import (
	"github.com/serroba/crdt-docs/internal/crdt"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	// Client to Server messages.
	MessageTypeEdit      MessageType = "edit"      // Client submits a whole-text edit
	MessageTypeOperation MessageType = "operation" // Remote replica forwards a CRDT operation
	MessageTypeSync      MessageType = "sync"      // Client requests current state

	// Server to Client messages.
	MessageTypeAck       MessageType = "ack"       // Server confirms operations applied
	MessageTypeBroadcast MessageType = "broadcast" // Server pushes an operation to clients
	MessageTypeState     MessageType = "state"     // Server sends full document state
	MessageTypeError     MessageType = "error"     // Server reports an error
)

// Message is the envelope for all WebSocket communication.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// EditPayload is sent when a client submits the full new text of its
// local buffer. The server diffs it against the current replica and
// replicates the resulting operations.
type EditPayload struct {
	DocID string `json:"docId"`
	Text  string `json:"text"`
}

// OperationPayload carries one CRDT operation in wire form. A nil
// AfterID on an insert means the document start.
type OperationPayload struct {
	DocID     string  `json:"docId"`
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	AfterID   *string `json:"afterId,omitempty"`
	Value     string  `json:"value,omitempty"`
	Author    string  `json:"author,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// SyncPayload is sent when a client asks for the current state.
type SyncPayload struct {
	DocID string `json:"docId"`
}

// AckPayload confirms operations were applied, listing their dedup keys
// and the session clock after applying them.
type AckPayload struct {
	Applied []string `json:"applied"`
	Clock   int64    `json:"clock"`
}

// BroadcastPayload pushes an applied operation to other clients.
type BroadcastPayload struct {
	OperationPayload

	UserID string `json:"userId"`
}

// StatePayload sends the full document state: rendered text plus the
// authorship segments derived from it.
type StatePayload struct {
	DocID    string         `json:"docId"`
	Text     string         `json:"text"`
	Clock    int64          `json:"clock"`
	Segments []crdt.Segment `json:"segments"`
}

// ErrorPayload reports an error to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeInternalError  = "internal_error"
)

// NewOperationPayload converts an engine operation to its wire form.
func NewOperationPayload(docID string, op crdt.Operation) OperationPayload {
	payload := OperationPayload{
		DocID:     docID,
		Type:      string(op.Type),
		ID:        op.ID.String(),
		Value:     op.Value,
		Author:    op.Author,
		Timestamp: op.Timestamp,
	}

	if op.After != nil {
		after := op.After.String()
		payload.AfterID = &after
	}

	return payload
}

// Operation converts the wire form back to an engine operation.
func (p OperationPayload) Operation() (crdt.Operation, error) {
	id, err := crdt.ParseID(p.ID)
	if err != nil {
		return crdt.Operation{}, err
	}

	op := crdt.Operation{
		Type:      crdt.OpType(p.Type),
		ID:        id,
		Value:     p.Value,
		Author:    p.Author,
		Timestamp: p.Timestamp,
	}

	if p.AfterID != nil {
		after, err := crdt.ParseID(*p.AfterID)
		if err != nil {
			return crdt.Operation{}, err
		}

		op.After = &after
	}

	return op, op.Validate()
}
