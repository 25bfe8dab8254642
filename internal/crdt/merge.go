package crdt

// Outcome describes how an operation landed in the document. Callers use
// it for diagnostics; none of the non-error outcomes fail the apply.
type Outcome int

const (
	// OutcomeApplied means the operation took effect at its intended place.
	OutcomeApplied Outcome = iota
	// OutcomeAnchorMissing means an insert's anchor was not live (deleted
	// concurrently, or not yet arrived) and the character was appended at
	// the end of the document instead. A deliberate liveness fallback:
	// the edit is never lost, only possibly misplaced.
	OutcomeAnchorMissing
	// OutcomeNoop means a delete targeted an id that is not live. Deletes
	// are idempotent, so this is not an error.
	OutcomeNoop
)

// Apply merges a single operation into the document. The document is the
// only thing mutated; observing the operation's timestamp into the
// session clock is the caller's responsibility for remote operations.
//
// For any two replicas that apply the same set of operations — in any
// order — the resulting documents hold the same live characters, in the
// same relative order except for concurrent inserts sharing an anchor,
// which land in arrival order.
func (d *Document) Apply(op Operation) (Outcome, error) {
	if err := op.Validate(); err != nil {
		return OutcomeNoop, err
	}

	switch op.Type {
	case OpInsert:
		return d.applyInsert(op), nil
	case OpDelete:
		return d.applyDelete(op), nil
	default:
		return OutcomeNoop, ErrUnknownOpType
	}
}

// applyInsert places the new character after its anchor, at the document
// start when the anchor is nil, or at the end when the anchor is not live.
func (d *Document) applyInsert(op Operation) Outcome {
	c := Character{
		ID:        op.ID,
		Value:     op.Value,
		Author:    op.Author,
		Timestamp: op.Timestamp,
	}

	if op.After == nil {
		d.insertAt(0, c)

		return OutcomeApplied
	}

	p := d.IndexOf(*op.After)
	if p < 0 {
		d.chars = append(d.chars, c)

		return OutcomeAnchorMissing
	}

	d.insertAt(p+1, c)

	return OutcomeApplied
}

// applyDelete removes the character if it is live; otherwise no-op.
func (d *Document) applyDelete(op Operation) Outcome {
	p := d.IndexOf(op.ID)
	if p < 0 {
		return OutcomeNoop
	}

	d.chars = append(d.chars[:p], d.chars[p+1:]...)

	return OutcomeApplied
}

// insertAt splices a character into position i.
func (d *Document) insertAt(i int, c Character) {
	d.chars = append(d.chars, Character{})
	copy(d.chars[i+1:], d.chars[i:])
	d.chars[i] = c
}
