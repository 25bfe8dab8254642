package crdt

import "errors"

// OpType tags the replicated operation variants. The values double as the
// wire representation.
type OpType string

const (
	OpInsert OpType = "insert"
	OpDelete OpType = "delete"
)

// Validation errors for malformed operations.
var (
	ErrUnknownOpType = errors.New("unknown operation type")
	ErrMissingID     = errors.New("operation is missing an id")
	ErrMissingValue  = errors.New("insert is missing a value")
	ErrMissingAuthor = errors.New("insert is missing an author")
)

// Operation is the unit of replication. It is immutable once created and
// idempotent to re-apply (duplicates are filtered by Key at the
// replication boundary; repeated deletes are no-ops in the engine).
//
// For an insert, After is the id of the character the new character goes
// after; nil means the very start of the document. For a delete only ID
// and Timestamp are meaningful.
type Operation struct {
	Type      OpType `json:"type"`
	ID        ID     `json:"id"`
	After     *ID    `json:"afterId,omitempty"`
	Value     string `json:"value,omitempty"`
	Author    string `json:"author,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewInsert creates an insert operation.
func NewInsert(after *ID, value string, id ID, author string, timestamp int64) Operation {
	return Operation{
		Type:      OpInsert,
		ID:        id,
		After:     after,
		Value:     value,
		Author:    author,
		Timestamp: timestamp,
	}
}

// NewDelete creates a delete operation.
func NewDelete(id ID, timestamp int64) Operation {
	return Operation{
		Type:      OpDelete,
		ID:        id,
		Timestamp: timestamp,
	}
}

// IsInsert returns true if this is an insert operation.
func (o Operation) IsInsert() bool {
	return o.Type == OpInsert
}

// IsDelete returns true if this is a delete operation.
func (o Operation) IsDelete() bool {
	return o.Type == OpDelete
}

// Key returns the composite "<type>:<id>" deduplication key. The
// replication boundary uses it to discard operations it has already
// applied, since the transport may deliver at-least-once.
func (o Operation) Key() string {
	return string(o.Type) + ":" + o.ID.String()
}

// Validate checks the operation has every field its type requires.
// Malformed operations must be rejected before Apply, never applied.
func (o Operation) Validate() error {
	switch o.Type {
	case OpInsert:
		if o.ID.IsZero() {
			return ErrMissingID
		}

		if o.Value == "" {
			return ErrMissingValue
		}

		if o.Author == "" {
			return ErrMissingAuthor
		}

		return nil
	case OpDelete:
		if o.ID.IsZero() {
			return ErrMissingID
		}

		return nil
	default:
		return ErrUnknownOpType
	}
}
