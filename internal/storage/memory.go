package storage

import (
	"sync"
	"time"

	"github.com/serroba/crdt-docs/internal/crdt"
)

// documentData holds all persisted data for a single document.
type documentData struct {
	snapshot  *Snapshot
	log       []LoggedOperation
	nextIndex int64
}

// MemoryStore is an in-memory implementation of the Store interface.
// Useful for testing and development.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*documentData
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*documentData),
	}
}

// CreateDocument creates a new document with the given ID.
func (m *MemoryStore) CreateDocument(docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[docID]; exists {
		return ErrDocumentExists
	}

	m.docs[docID] = &documentData{nextIndex: 1}

	return nil
}

// DocumentExists checks if a document exists.
func (m *MemoryStore) DocumentExists(docID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.docs[docID]

	return exists, nil
}

// DeleteDocument removes a document, its log, and its snapshot.
func (m *MemoryStore) DeleteDocument(docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[docID]; !exists {
		return ErrDocumentNotFound
	}

	delete(m.docs, docID)

	return nil
}

// AppendOperation appends an operation to the document's log.
func (m *MemoryStore) AppendOperation(docID string, op crdt.Operation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[docID]
	if !exists {
		return 0, ErrDocumentNotFound
	}

	index := doc.nextIndex
	doc.nextIndex++
	doc.log = append(doc.log, LoggedOperation{Index: index, Op: op})

	return index, nil
}

// LoadOperations retrieves all logged operations after the given index.
func (m *MemoryStore) LoadOperations(docID string, sinceIndex int64) ([]LoggedOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[docID]
	if !exists {
		return nil, ErrDocumentNotFound
	}

	var result []LoggedOperation

	for _, entry := range doc.log {
		if entry.Index > sinceIndex {
			result = append(result, entry)
		}
	}

	return result, nil
}

// SaveSnapshot persists a snapshot covering the log up to logIndex.
func (m *MemoryStore) SaveSnapshot(docID string, logIndex, clock int64, chars []crdt.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[docID]
	if !exists {
		return ErrDocumentNotFound
	}

	snapshot := Snapshot{
		DocID:      docID,
		LogIndex:   logIndex,
		Clock:      clock,
		Characters: make([]crdt.Character, len(chars)),
		CreatedAt:  time.Now(),
	}
	copy(snapshot.Characters, chars)

	doc.snapshot = &snapshot

	// Prune log entries now covered by the snapshot.
	var kept []LoggedOperation

	for _, entry := range doc.log {
		if entry.Index > logIndex {
			kept = append(kept, entry)
		}
	}

	doc.log = kept

	return nil
}

// LoadSnapshot retrieves the latest snapshot for a document.
func (m *MemoryStore) LoadSnapshot(docID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[docID]
	if !exists {
		return Snapshot{}, ErrDocumentNotFound
	}

	if doc.snapshot == nil {
		return Snapshot{}, ErrSnapshotNotFound
	}

	return *doc.snapshot, nil
}

// LatestIndex returns the highest log index recorded for a document.
func (m *MemoryStore) LatestIndex(docID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[docID]
	if !exists {
		return 0, ErrDocumentNotFound
	}

	return doc.nextIndex - 1, nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
