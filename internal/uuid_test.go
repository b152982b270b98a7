package internal_test

import (
	"encoding/hex"
	"testing"

	"github.com/jeroenvanmaanen/dendrite/internal"
)

func TestNewID(t *testing.T) {
	id := internal.NewID()

	if len(id) != 32 {
		t.Fatalf("NewID() should return 32 characters; got %d (%q)", len(id), id)
	}

	if _, err := hex.DecodeString(id); err != nil {
		t.Fatalf("NewID() should return hex characters only; got %q", id)
	}

	if id == internal.NewID() {
		t.Fatalf("NewID() should not return the same id twice")
	}
}
