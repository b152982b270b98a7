package axonpb_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/event"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusError_conflict(t *testing.T) {
	err := fmt.Errorf("append: %w", &event.ConflictError{AggregateIdentifier: "a1", Expected: 2, Actual: 4})

	serr := axonpb.StatusError(err)
	if status.Code(serr) != codes.Aborted {
		t.Fatalf("conflict should become %v; got %v", codes.Aborted, status.Code(serr))
	}

	back := axonpb.ErrorFromStatus(serr)
	cerr, ok := event.IsConflict(back)
	if !ok || cerr == nil {
		t.Fatalf("ErrorFromStatus() should return a *event.ConflictError; got %q", back)
	}

	if cerr.AggregateIdentifier != "a1" || cerr.Expected != 2 || cerr.Actual != 4 {
		t.Fatalf("conflict details should survive the round trip; got %+v", cerr)
	}
}

func TestStatusError_invalidSequence(t *testing.T) {
	serr := axonpb.StatusError(fmt.Errorf("%w: 2 follows 0", event.ErrInvalidSequence))
	if status.Code(serr) != codes.InvalidArgument {
		t.Fatalf("invalid sequence should become %v; got %v", codes.InvalidArgument, status.Code(serr))
	}

	if back := axonpb.ErrorFromStatus(serr); !errors.Is(back, event.ErrInvalidSequence) {
		t.Fatalf("ErrorFromStatus() should return %q; got %q", event.ErrInvalidSequence, back)
	}
}

func TestStatusError_internal(t *testing.T) {
	serr := axonpb.StatusError(errors.New("disk full"))
	if status.Code(serr) != codes.Internal {
		t.Fatalf("unknown errors should become %v; got %v", codes.Internal, status.Code(serr))
	}

	if back := axonpb.ErrorFromStatus(serr); back != serr {
		t.Fatalf("ErrorFromStatus() should pass through unknown statuses; got %q", back)
	}
}
