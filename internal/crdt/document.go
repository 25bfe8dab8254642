package crdt

import "sort"

// Character is the atomic unit of the document. All fields are immutable
// after creation; only the character's presence in a Document changes.
type Character struct {
	ID        ID     `json:"id"`
	Value     string `json:"value"` // a single code point
	Author    string `json:"author"`
	Timestamp int64  `json:"timestamp"`
}

// Document is an ordered sequence of live characters. Slice position is
// the authoritative text order once established by insertion; rendered
// text is never derived by sorting on timestamps.
//
// Deleted characters are removed outright — no tombstones are kept.
//
// A Document is owned by a single editing session and is not safe for
// concurrent use; the owning session serializes access.
type Document struct {
	chars []Character
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// NewDocumentFromCharacters creates a document holding the given
// characters in the given order, e.g. when restoring from a snapshot.
func NewDocumentFromCharacters(chars []Character) *Document {
	d := &Document{chars: make([]Character, len(chars))}
	copy(d.chars, chars)

	return d
}

// Len returns the number of live characters.
func (d *Document) Len() int {
	return len(d.chars)
}

// Text renders the document: the concatenation of live character values
// in positional order.
func (d *Document) Text() string {
	var b []byte
	for _, c := range d.chars {
		b = append(b, c.Value...)
	}

	return string(b)
}

// Characters returns a copy of the live characters in positional order.
func (d *Document) Characters() []Character {
	out := make([]Character, len(d.chars))
	copy(out, d.chars)

	return out
}

// At returns the character at the given position.
func (d *Document) At(i int) Character {
	return d.chars[i]
}

// IndexOf returns the position of the live character with the given id,
// or -1 if it is not present.
func (d *Document) IndexOf(id ID) int {
	for i, c := range d.chars {
		if c.ID == id {
			return i
		}
	}

	return -1
}

// Contains reports whether a live character with the given id is present.
func (d *Document) Contains(id ID) bool {
	return d.IndexOf(id) >= 0
}

// MaxSeq returns the highest sequence number among the author's live
// characters, or zero if the author has none. Used to seed a Differ's
// allocator on load so restarts never reuse an id.
func (d *Document) MaxSeq(author string) int64 {
	var maxSeq int64

	for _, c := range d.chars {
		if c.ID.Author == author && c.ID.Seq > maxSeq {
			maxSeq = c.ID.Seq
		}
	}

	return maxSeq
}

// Canonical returns the characters in the deterministic (timestamp, id)
// total order. This order exists for contexts needing a canonical view
// independent of positional order (conflict debugging, alternative
// renderings); it is never what Text or Segments use.
func Canonical(d *Document) []Character {
	out := d.Characters()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}

		return out[i].ID.Less(out[j].ID)
	})

	return out
}
