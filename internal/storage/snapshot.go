package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/serroba/crdt-docs/internal/crdt"
)

// SnapshotPolicy decides when a document's log has grown enough to be
// worth compacting into a snapshot. A threshold of zero disables
// snapshotting entirely.
type SnapshotPolicy struct {
	mu        sync.Mutex
	threshold int
	appended  map[string]int // appends per document since its last snapshot
}

// NewSnapshotPolicy creates a policy that triggers every threshold appends.
func NewSnapshotPolicy(threshold int) *SnapshotPolicy {
	return &SnapshotPolicy{
		threshold: threshold,
		appended:  make(map[string]int),
	}
}

// Record notes that an operation was appended for the document and
// reports whether a snapshot should be taken now.
func (p *SnapshotPolicy) Record(docID string) bool {
	if p.threshold <= 0 {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.appended[docID]++

	return p.appended[docID] >= p.threshold
}

// Reset clears the document's append counter after a snapshot is taken.
func (p *SnapshotPolicy) Reset(docID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.appended[docID] = 0
}

// DocumentLoader reconstructs a document replica from storage using the
// snapshot + replay pattern: start from the latest snapshot (or empty)
// and apply the remaining log, in log order, through the merge engine.
type DocumentLoader struct {
	store Store
}

// NewDocumentLoader creates a new document loader.
func NewDocumentLoader(store Store) *DocumentLoader {
	return &DocumentLoader{store: store}
}

// LoadResult contains the reconstructed replica state.
type LoadResult struct {
	Doc      *crdt.Document
	Clock    *crdt.Clock
	LogIndex int64             // highest log index applied
	Replayed []LoggedOperation // log entries applied on top of the snapshot
	IsNew    bool              // true if neither snapshot nor log existed
}

// Load reconstructs a document's state from storage. The clock is seeded
// from the snapshot and then observes every replayed timestamp, so the
// session resumes strictly ahead of everything it has ever stamped.
func (l *DocumentLoader) Load(docID string) (LoadResult, error) {
	snapshot, err := l.store.LoadSnapshot(docID)

	doc := crdt.NewDocument()
	clock := crdt.NewClock()

	var startIndex int64

	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		// No snapshot: replay the full log from empty.
	case err != nil:
		return LoadResult{}, err
	default:
		doc = crdt.NewDocumentFromCharacters(snapshot.Characters)
		clock.Set(snapshot.Clock)
		startIndex = snapshot.LogIndex
	}

	ops, err := l.store.LoadOperations(docID, startIndex)
	if err != nil {
		return LoadResult{}, err
	}

	currentIndex := startIndex

	for _, entry := range ops {
		clock.Observe(entry.Op.Timestamp)

		if _, err := doc.Apply(entry.Op); err != nil {
			return LoadResult{}, fmt.Errorf("replay log entry %d: %w", entry.Index, err)
		}

		currentIndex = entry.Index
	}

	return LoadResult{
		Doc:      doc,
		Clock:    clock,
		LogIndex: currentIndex,
		Replayed: ops,
		IsNew:    startIndex == 0 && len(ops) == 0,
	}, nil
}
