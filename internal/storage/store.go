package storage

import (
	"errors"
	"time"

	"github.com/serroba/crdt-docs/internal/crdt"
)

// Common errors.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// LoggedOperation is an operation together with its position in the
// document's replication log. Log order is replay order: a new replica
// reconstructs its document by applying the log from empty, in order.
type LoggedOperation struct {
	Index int64
	Op    crdt.Operation
}

// Snapshot is a point-in-time capture of a document replica: the full
// live character state, the session clock value, and the log position it
// covers. Replay resumes after LogIndex.
type Snapshot struct {
	DocID      string
	LogIndex   int64
	Clock      int64
	Characters []crdt.Character
	CreatedAt  time.Time
}

// Store defines the interface for persisting the per-document operation
// log and snapshots. Implementations can use in-memory storage, SQLite,
// or other backends.
type Store interface {
	// CreateDocument creates a new document with the given ID.
	// Returns ErrDocumentExists if the document already exists.
	CreateDocument(docID string) error

	// DocumentExists checks if a document exists.
	DocumentExists(docID string) (bool, error)

	// DeleteDocument removes a document, its log, and its snapshot.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	DeleteDocument(docID string) error

	// AppendOperation appends an operation to the document's log and
	// returns its assigned log index.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	AppendOperation(docID string, op crdt.Operation) (int64, error)

	// LoadOperations retrieves all logged operations after the given
	// index, in log order.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	LoadOperations(docID string, sinceIndex int64) ([]LoggedOperation, error)

	// SaveSnapshot persists a snapshot covering the log up to logIndex.
	// Operations at or before logIndex may be pruned.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	SaveSnapshot(docID string, logIndex, clock int64, chars []crdt.Character) error

	// LoadSnapshot retrieves the latest snapshot for a document.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	// Returns ErrSnapshotNotFound if the document has no snapshot.
	LoadSnapshot(docID string) (Snapshot, error)

	// LatestIndex returns the highest log index recorded for a document.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	LatestIndex(docID string) (int64, error)
}
