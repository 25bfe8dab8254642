package crdt

// Differ converts whole-text edits by one author into the minimal ordered
// operation sequence that replicates them. It owns the author's sequence
// allocator; ids it mints are never reused, even across restarts, because
// the allocator is seeded past every sequence number already in the
// document.
type Differ struct {
	author string
	clock  *Clock
	seq    int64 // next sequence number to mint
}

// NewDiffer creates a differ for the given author, stamping operations
// from the session clock. The sequence allocator starts one past the
// author's highest sequence number among the document's live characters.
func NewDiffer(author string, clock *Clock, doc *Document) *Differ {
	return &Differ{
		author: author,
		clock:  clock,
		seq:    doc.MaxSeq(author) + 1,
	}
}

// Author returns the author this differ mints ids for.
func (f *Differ) Author() string {
	return f.author
}

// ObserveSeq keeps the allocator ahead of a sequence number seen on a
// remote operation by the same author, so a user editing through two
// paths cannot collide ids.
func (f *Differ) ObserveSeq(seq int64) {
	if seq >= f.seq {
		f.seq = seq + 1
	}
}

// mint assigns a fresh id.
func (f *Differ) mint() ID {
	id := ID{Author: f.author, Seq: f.seq}
	f.seq++

	return id
}

// Diff computes the operations that transform the document's current text
// into newText. The changed region is found by longest common prefix and
// non-overlapping longest common suffix, matched on character boundaries
// (a live character's value may span several code points, e.g. a
// decomposed grapheme arriving from a remote replica):
//
//   - deletes are emitted for the old changed region in reverse index
//     order (last to first);
//   - inserts are emitted left to right, the first anchored to the
//     character just before the changed region (nil at document start),
//     each subsequent one chained off the previous freshly minted id, so
//     a multi-character paste becomes an ordered chain of singletons.
//
// Each operation gets its own timestamp from the clock, in emission
// order. Applying the result in order to the document reproduces newText.
// The result is empty when the texts already match.
func (f *Differ) Diff(doc *Document, newText string) []Operation {
	oldChars := doc.Characters()
	newRunes := []rune(newText)

	prefixChars, prefixRunes := commonPrefix(oldChars, newRunes)
	suffixChars, suffixRunes := commonSuffix(oldChars, newRunes, prefixChars, prefixRunes)

	var ops []Operation

	for i := len(oldChars) - suffixChars - 1; i >= prefixChars; i-- {
		ops = append(ops, NewDelete(oldChars[i].ID, f.clock.Next()))
	}

	var after *ID

	if prefixChars > 0 {
		anchor := oldChars[prefixChars-1].ID
		after = &anchor
	}

	for _, r := range newRunes[prefixRunes : len(newRunes)-suffixRunes] {
		id := f.mint()
		ops = append(ops, NewInsert(after, string(r), id, f.author, f.clock.Next()))

		anchor := id
		after = &anchor
	}

	return ops
}

// commonPrefix returns the longest run of leading characters whose values
// match the new text, as a character count and the rune count it covers.
// Matching stops at character boundaries so a multi-code-point value is
// kept or replaced whole.
func commonPrefix(chars []Character, runes []rune) (nChars, nRunes int) {
	for nChars < len(chars) {
		v := []rune(chars[nChars].Value)
		if nRunes+len(v) > len(runes) || !runesEqual(v, runes[nRunes:nRunes+len(v)]) {
			break
		}

		nChars++
		nRunes += len(v)
	}

	return nChars, nRunes
}

// commonSuffix returns the longest run of trailing characters whose values
// match the new text without overlapping the already-matched prefix, as a
// character count and the rune count it covers.
func commonSuffix(chars []Character, runes []rune, prefixChars, prefixRunes int) (nChars, nRunes int) {
	for prefixChars+nChars < len(chars) {
		v := []rune(chars[len(chars)-1-nChars].Value)

		end := len(runes) - nRunes
		if end-len(v) < prefixRunes || !runesEqual(v, runes[end-len(v):end]) {
			break
		}

		nChars++
		nRunes += len(v)
	}

	return nChars, nRunes
}

// runesEqual reports whether b begins with exactly the runes of a.
// Callers slice b to len(a) first.
func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
