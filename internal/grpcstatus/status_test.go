package grpcstatus_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeroenvanmaanen/dendrite/internal/grpcstatus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWithReason(t *testing.T) {
	st := grpcstatus.WithReason(codes.Aborted, "conflict", "CONFLICT", map[string]string{"expected": "3"})

	if st.Code() != codes.Aborted {
		t.Fatalf("Code() should return %v; got %v", codes.Aborted, st.Code())
	}

	reason, md, ok := grpcstatus.Reason(st)
	if !ok {
		t.Fatalf("Reason() should find the ErrorInfo detail")
	}

	if reason != "CONFLICT" {
		t.Fatalf("reason should be %q; is %q", "CONFLICT", reason)
	}

	if want := map[string]string{"expected": "3"}; !cmp.Equal(want, md) {
		t.Fatalf("metadata differs:\n%s", cmp.Diff(want, md))
	}

	// Round trip through an error as it happens on the client side.
	parsed, _ := status.FromError(st.Err())
	if reason, _, _ := grpcstatus.Reason(parsed); reason != "CONFLICT" {
		t.Fatalf("reason should survive the error round trip; got %q", reason)
	}
}

func TestReason_noDetails(t *testing.T) {
	if _, _, ok := grpcstatus.Reason(grpcstatus.New(codes.Internal, "boom")); ok {
		t.Fatalf("Reason() should report no detail for a plain status")
	}
}
