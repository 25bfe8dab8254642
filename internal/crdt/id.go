package crdt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when a wire-format ID cannot be parsed.
var ErrInvalidID = errors.New("invalid character id")

// ID uniquely and permanently identifies a character. It is assigned once
// at creation and never reused: Author scopes the ID to the editor that
// minted it, Seq is that editor's monotonically increasing counter.
type ID struct {
	Author string
	Seq    int64
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id.Author == "" && id.Seq == 0
}

// Less orders IDs by author, then sequence number. Used as the tie-break
// within the canonical (timestamp, id) total order.
func (id ID) Less(other ID) bool {
	if id.Author != other.Author {
		return id.Author < other.Author
	}

	return id.Seq < other.Seq
}

// String renders the wire form "<author>:<seq>".
func (id ID) String() string {
	return id.Author + ":" + strconv.FormatInt(id.Seq, 10)
}

// ParseID parses the wire form "<author>:<seq>".
func ParseID(s string) (ID, error) {
	sep := strings.LastIndex(s, ":")
	if sep <= 0 || sep == len(s)-1 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	seq, err := strconv.ParseInt(s[sep+1:], 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	return ID{Author: s[:sep], Seq: seq}, nil
}

// MarshalText implements encoding.TextMarshaler so IDs serialize as
// "<author>:<seq>" strings in JSON payloads.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}
