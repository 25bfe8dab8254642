package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/serroba/crdt-docs/internal/acl"
	"github.com/serroba/crdt-docs/internal/crdt"
	"github.com/serroba/crdt-docs/internal/storage"
	"github.com/serroba/crdt-docs/internal/ws"
)

// handleWebSocket handles GET /ws?docId={id}.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "docId query parameter is required", http.StatusBadRequest)

		return
	}

	userID := UserIDFromContext(r.Context())

	client, cleanup, err := s.setupWebSocketClient(w, r, docID)
	if err != nil {
		return
	}

	defer cleanup()

	session, err := s.initializeSession(client, docID, userID)
	if err != nil {
		return
	}

	s.handleMessages(client, session, docID, userID)
}

// setupWebSocketClient upgrades the connection and creates a client.
func (s *Server) setupWebSocketClient(
	w http.ResponseWriter, r *http.Request, docID string,
) (*ws.Client, func(), error) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)

		return nil, nil, err
	}

	clientID := uuid.New().String()
	client := ws.NewClient(clientID, UserIDFromContext(r.Context()), conn)
	s.hub.Register(client)
	s.hub.Subscribe(client, docID)

	cleanup := func() {
		s.hub.Unregister(client)
		_ = client.Close()
	}

	return client, cleanup, nil
}

// initializeSession gets or creates a session and sends initial state.
func (s *Server) initializeSession(client *ws.Client, docID, userID string) (sessionInterface, error) {
	session, err := s.manager.GetOrCreateSession(docID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			_ = client.SendError(ws.ErrorCodeInvalidMessage, "document not found")
		} else {
			_ = client.SendError(ws.ErrorCodeInternalError, "failed to load document")
		}

		return nil, err
	}

	if err := s.sendState(client, session, docID, userID); err != nil {
		return nil, err
	}

	return session, nil
}

// sendState pushes the full document state to the client.
func (s *Server) sendState(client *ws.Client, session sessionInterface, docID, userID string) error {
	text, segments, clock, err := session.GetState(userID)
	if err != nil {
		if errors.Is(err, acl.ErrAccessDenied) {
			_ = client.SendError(ws.ErrorCodeAccessDenied, "access denied")
		} else {
			_ = client.SendError(ws.ErrorCodeInternalError, "failed to get document state")
		}

		return err
	}

	return client.Send(ws.Message{
		Type: ws.MessageTypeState,
		Payload: ws.StatePayload{
			DocID:    docID,
			Text:     text,
			Clock:    clock,
			Segments: segments,
		},
	})
}

// handleMessages processes incoming messages from a client.
func (s *Server) handleMessages(client *ws.Client, session sessionInterface, docID, userID string) {
	for {
		msg, err := client.Receive()
		if err != nil {
			return
		}

		switch msg.Type {
		case ws.MessageTypeEdit:
			s.handleEdit(client, session, userID, msg)
		case ws.MessageTypeOperation:
			s.handleOperation(client, session, userID, msg)
		case ws.MessageTypeSync:
			_ = s.sendState(client, session, docID, userID)
		case ws.MessageTypeAck, ws.MessageTypeBroadcast, ws.MessageTypeState, ws.MessageTypeError:
			// Server-to-client messages - ignore if received from client
			_ = client.SendError(ws.ErrorCodeInvalidMessage, "unexpected message type")
		}
	}
}

// handleEdit diffs the submitted text against the replica and replicates
// the resulting operations.
func (s *Server) handleEdit(client *ws.Client, session sessionInterface, userID string, msg ws.Message) {
	payload, ok := msg.Payload.(ws.EditPayload)
	if !ok {
		_ = client.SendError(ws.ErrorCodeInvalidMessage, "invalid edit payload")

		return
	}

	ops, err := session.ApplyEdit(client.ID, userID, payload.Text)
	if err != nil {
		s.sendApplyError(client, err)

		return
	}

	s.sendAck(client, session, ops)
}

// handleOperation merges a single forwarded operation.
func (s *Server) handleOperation(client *ws.Client, session sessionInterface, userID string, msg ws.Message) {
	payload, ok := msg.Payload.(ws.OperationPayload)
	if !ok {
		_ = client.SendError(ws.ErrorCodeInvalidMessage, "invalid operation payload")

		return
	}

	op, err := payload.Operation()
	if err != nil {
		_ = client.SendError(ws.ErrorCodeInvalidMessage, "malformed operation")

		return
	}

	applied, err := session.ApplyRemote(client.ID, userID, op)
	if err != nil {
		s.sendApplyError(client, err)

		return
	}

	// Duplicates are acknowledged without re-applying, so a retrying
	// transport always gets closure.
	if !applied {
		s.sendAck(client, session, nil)

		return
	}

	s.sendAck(client, session, []crdt.Operation{op})
}

// sendAck confirms applied operations by their dedup keys.
func (s *Server) sendAck(client *ws.Client, session sessionInterface, ops []crdt.Operation) {
	keys := make([]string, 0, len(ops))
	for _, op := range ops {
		keys = append(keys, op.Key())
	}

	_ = client.Send(ws.Message{
		Type: ws.MessageTypeAck,
		Payload: ws.AckPayload{
			Applied: keys,
			Clock:   session.Clock(),
		},
	})
}

// sendApplyError translates session errors into client error messages.
func (s *Server) sendApplyError(client *ws.Client, err error) {
	if errors.Is(err, acl.ErrAccessDenied) {
		_ = client.SendError(ws.ErrorCodeAccessDenied, "write access denied")

		return
	}

	_ = client.SendError(ws.ErrorCodeInternalError, err.Error())
}

// sessionInterface allows mocking the session for testing.
type sessionInterface interface {
	ApplyEdit(clientID, userID, text string) ([]crdt.Operation, error)
	ApplyRemote(clientID, userID string, op crdt.Operation) (bool, error)
	GetState(userID string) (string, []crdt.Segment, int64, error)
	Clock() int64
}
