package axonpb

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jeroenvanmaanen/dendrite/event"
	"github.com/jeroenvanmaanen/dendrite/internal/grpcstatus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorInfo reasons of the EventStore service.
const (
	ReasonConflict        = "CONFLICT"
	ReasonInvalidSequence = "INVALID_SEQUENCE"
)

// StatusError returns the gRPC status error for an event store error. Conflicts
// become codes.Aborted and invalid sequences codes.InvalidArgument, both with
// an ErrorInfo detail that ErrorFromStatus translates back.
func StatusError(err error) error {
	if err == nil {
		return nil
	}

	if cerr, ok := event.IsConflict(err); ok {
		md := map[string]string{}
		if cerr != nil {
			md["aggregate_identifier"] = cerr.AggregateIdentifier
			md["expected"] = strconv.FormatInt(cerr.Expected, 10)
			md["actual"] = strconv.FormatInt(cerr.Actual, 10)
		}
		return grpcstatus.WithReason(codes.Aborted, err.Error(), ReasonConflict, md).Err()
	}

	if errors.Is(err, event.ErrInvalidSequence) {
		return grpcstatus.WithReason(codes.InvalidArgument, err.Error(), ReasonInvalidSequence, nil).Err()
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, err.Error())
}

// ErrorFromStatus translates a gRPC status error of the EventStore service back
// into the event store error it was created from.
func ErrorFromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}

	reason, md, ok := grpcstatus.Reason(st)
	if !ok {
		return err
	}

	switch reason {
	case ReasonConflict:
		if id, ok := md["aggregate_identifier"]; ok {
			expected, _ := strconv.ParseInt(md["expected"], 10, 64)
			actual, _ := strconv.ParseInt(md["actual"], 10, 64)
			return &event.ConflictError{AggregateIdentifier: id, Expected: expected, Actual: actual}
		}
		return fmt.Errorf("%w: %s", event.ErrConflict, st.Message())
	case ReasonInvalidSequence:
		return fmt.Errorf("%w: %s", event.ErrInvalidSequence, st.Message())
	default:
		return err
	}
}
