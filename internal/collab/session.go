package collab

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/serroba/crdt-docs/internal/acl"
	"github.com/serroba/crdt-docs/internal/crdt"
	"github.com/serroba/crdt-docs/internal/storage"
	"github.com/serroba/crdt-docs/internal/ws"
)

// Common errors.
var (
	ErrSessionClosed = errors.New("session is closed")
)

// Session hosts one replica of a document and is its replication
// boundary: local edits are diffed into operations here, remote
// operations are deduplicated, clocked, and merged here. The engine
// underneath stays pure; everything stateful about replication (the
// dedup set, the clock, per-author id allocators) lives in the session.
type Session struct {
	docID string

	mu       sync.RWMutex
	doc      *crdt.Document
	clock    *crdt.Clock
	differs  map[string]*crdt.Differ
	seen     map[string]struct{} // operation dedup keys already applied
	logIndex int64
	closed   bool

	// Dependencies
	store          storage.Store
	permChecker    *acl.Checker
	hub            *ws.Hub
	snapshotPolicy *storage.SnapshotPolicy
}

// SessionConfig holds configuration for creating a session.
type SessionConfig struct {
	DocID          string
	Store          storage.Store
	PermChecker    *acl.Checker
	Hub            *ws.Hub
	SnapshotPolicy *storage.SnapshotPolicy
}

// NewSession creates a new collaborative editing session.
func NewSession(cfg SessionConfig) *Session {
	return &Session{
		docID:          cfg.DocID,
		doc:            crdt.NewDocument(),
		clock:          crdt.NewClock(),
		differs:        make(map[string]*crdt.Differ),
		seen:           make(map[string]struct{}),
		store:          cfg.Store,
		permChecker:    cfg.PermChecker,
		hub:            cfg.Hub,
		snapshotPolicy: cfg.SnapshotPolicy,
	}
}

// Load initializes the session by reconstructing the replica from
// storage: latest snapshot plus log replay, in log order.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	loader := storage.NewDocumentLoader(s.store)

	result, err := loader.Load(s.docID)
	if err != nil {
		return err
	}

	s.doc = result.Doc
	s.clock = result.Clock
	s.logIndex = result.LogIndex
	s.differs = make(map[string]*crdt.Differ)

	// Remember the replayed tail so transport retries of recent
	// operations are still recognized as duplicates.
	s.seen = make(map[string]struct{}, len(result.Replayed))
	for _, entry := range result.Replayed {
		s.seen[entry.Op.Key()] = struct{}{}
	}

	return nil
}

// differ returns the id allocator for an author, creating it on first
// use, seeded past the author's existing ids.
func (s *Session) differ(author string) *crdt.Differ {
	d, ok := s.differs[author]
	if !ok {
		d = crdt.NewDiffer(author, s.clock, s.doc)
		s.differs[author] = d
	}

	return d
}

// ApplyEdit turns a whole-text edit by userID into operations, applies
// them optimistically to the local replica, persists them, and
// broadcasts them to other clients. Returns the emitted operations so
// the caller can acknowledge them.
func (s *Session) ApplyEdit(clientID, userID, text string) ([]crdt.Operation, error) {
	if err := s.checkWritePermission(userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	ops := s.differ(userID).Diff(s.doc, text)

	for _, op := range ops {
		if err := s.applyAndPersist(op); err != nil {
			return nil, err
		}

		s.maybeSnapshot()
	}

	for _, op := range ops {
		s.broadcast(clientID, userID, op)
	}

	return ops, nil
}

// ApplyRemote merges one operation from a remote replica. Duplicates
// (recognized by the operation's dedup key) are discarded and reported
// as applied=false; that is the expected behavior under at-least-once
// delivery, not an error. Malformed operations are rejected.
func (s *Session) ApplyRemote(clientID, userID string, op crdt.Operation) (bool, error) {
	if err := op.Validate(); err != nil {
		return false, err
	}

	if err := s.checkWritePermission(userID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSessionClosed
	}

	key := op.Key()
	if _, dup := s.seen[key]; dup {
		return false, nil
	}

	// The seen set only covers the log tail replayed after the latest
	// snapshot. A retried insert from before that horizon is caught by
	// its id still being live; re-inserting it would duplicate the id.
	if op.IsInsert() && s.doc.Contains(op.ID) {
		s.seen[key] = struct{}{}

		return false, nil
	}

	// Absorb the remote timestamp before merging, so every local
	// operation from now on is ordered after it.
	s.clock.Observe(op.Timestamp)

	if err := s.applyAndPersist(op); err != nil {
		return false, err
	}

	// Keep the author's allocator ahead of ids minted elsewhere.
	if op.IsInsert() {
		if d, ok := s.differs[op.ID.Author]; ok {
			d.ObserveSeq(op.ID.Seq)
		}
	}

	s.maybeSnapshot()
	s.broadcast(clientID, userID, op)

	return true, nil
}

// applyAndPersist merges an operation into the replica, appends it to
// the log, and marks its key as seen.
func (s *Session) applyAndPersist(op crdt.Operation) error {
	outcome, err := s.doc.Apply(op)
	if err != nil {
		return fmt.Errorf("apply %s: %w", op.Key(), err)
	}

	if outcome == crdt.OutcomeAnchorMissing {
		log.Printf("doc %s: anchor %s not live for %s, appended at end",
			s.docID, op.After, op.Key())
	}

	index, err := s.store.AppendOperation(s.docID, op)
	if err != nil {
		return fmt.Errorf("persist %s: %w", op.Key(), err)
	}

	s.logIndex = index
	s.seen[op.Key()] = struct{}{}

	return nil
}

// checkWritePermission verifies the user has write access.
func (s *Session) checkWritePermission(userID string) error {
	if s.permChecker == nil {
		return nil
	}

	return s.permChecker.RequirePermission(s.docID, userID, acl.ActionWrite)
}

// maybeSnapshot checks if a snapshot should be created and does so.
func (s *Session) maybeSnapshot() {
	if s.snapshotPolicy == nil {
		return
	}

	if s.snapshotPolicy.Record(s.docID) {
		if err := s.saveSnapshot(); err != nil {
			log.Printf("doc %s: snapshot failed: %v", s.docID, err)
		}

		s.snapshotPolicy.Reset(s.docID)
	}
}

// broadcast sends the operation to other connected clients.
func (s *Session) broadcast(clientID, userID string, op crdt.Operation) {
	if s.hub == nil {
		return
	}

	s.hub.BroadcastOperation(s.docID, op, userID, clientID)
}

// saveSnapshot persists the current replica state.
func (s *Session) saveSnapshot() error {
	return s.store.SaveSnapshot(s.docID, s.logIndex, s.clock.Current(), s.doc.Characters())
}

// GetState returns the rendered text, the authorship segments derived
// from it, and the session clock. It checks read permission first.
func (s *Session) GetState(userID string) (string, []crdt.Segment, int64, error) {
	if s.permChecker != nil {
		if err := s.permChecker.RequirePermission(s.docID, userID, acl.ActionRead); err != nil {
			return "", nil, 0, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", nil, 0, ErrSessionClosed
	}

	return s.doc.Text(), crdt.Segments(s.doc), s.clock.Current(), nil
}

// DocID returns the document ID for this session.
func (s *Session) DocID() string {
	return s.docID
}

// Clock returns the session clock's current value.
func (s *Session) Clock() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clock.Current()
}

// Close closes the session and saves a final snapshot.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	return s.saveSnapshot()
}
