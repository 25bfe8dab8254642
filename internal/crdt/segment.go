package crdt

// Segment is a maximal run of consecutive live characters sharing one
// author, in positional document order. Purely a display projection,
// recomputed on demand; it never feeds back into merging.
type Segment struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Start  int    `json:"start"` // first character position, inclusive
	End    int    `json:"end"`   // last character position, inclusive
}

// Segments walks the document in positional order and merges consecutive
// characters with the same author into authorship runs.
func Segments(d *Document) []Segment {
	if d.Len() == 0 {
		return nil
	}

	var segs []Segment

	cur := Segment{
		Text:   d.At(0).Value,
		Author: d.At(0).Author,
		Start:  0,
		End:    0,
	}

	for i := 1; i < d.Len(); i++ {
		c := d.At(i)

		if c.Author == cur.Author {
			cur.Text += c.Value
			cur.End = i

			continue
		}

		segs = append(segs, cur)
		cur = Segment{Text: c.Value, Author: c.Author, Start: i, End: i}
	}

	return append(segs, cur)
}
