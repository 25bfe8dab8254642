package crdt_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/serroba/crdt-docs/internal/crdt"
)

func TestID_String(t *testing.T) {
	t.Parallel()

	id := crdt.ID{Author: "alice", Seq: 42}

	if got := id.String(); got != "alice:42" {
		t.Errorf("expected alice:42, got %s", got)
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := crdt.ParseID("alice:42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id.Author != "alice" || id.Seq != 42 {
		t.Errorf("expected {alice 42}, got %+v", id)
	}
}

func TestParseID_AuthorWithColon(t *testing.T) {
	t.Parallel()

	// Only the last colon separates author from sequence.
	id, err := crdt.ParseID("host:alice:7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id.Author != "host:alice" || id.Seq != 7 {
		t.Errorf("expected {host:alice 7}, got %+v", id)
	}
}

func TestParseID_Invalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "alice", "alice:", ":42", "alice:x"} {
		if _, err := crdt.ParseID(s); !errors.Is(err, crdt.ErrInvalidID) {
			t.Errorf("ParseID(%q): expected ErrInvalidID, got %v", s, err)
		}
	}
}

func TestID_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	op := crdt.NewDelete(crdt.ID{Author: "bob", Seq: 3}, 9)

	data, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded crdt.Operation
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decoded.ID != op.ID {
		t.Errorf("expected id %v, got %v", op.ID, decoded.ID)
	}
}

func TestID_Less(t *testing.T) {
	t.Parallel()

	a := crdt.ID{Author: "alice", Seq: 9}
	b := crdt.ID{Author: "bob", Seq: 1}

	if !a.Less(b) {
		t.Error("expected author to order before sequence")
	}

	if !(crdt.ID{Author: "alice", Seq: 1}).Less(a) {
		t.Error("expected lower sequence to order first for same author")
	}
}
