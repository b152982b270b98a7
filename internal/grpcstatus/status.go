package grpcstatus

import (
	protov1 "github.com/golang/protobuf/proto"
	"github.com/jeroenvanmaanen/dendrite/internal/slice"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// Domain is the ErrorInfo domain of all errors produced by dendrite services.
const Domain = "dendrite"

// New returns a new grpc *Status with the provided details and ignores any
// errors that happen while adding the details.
func New(code codes.Code, message string, details ...proto.Message) *status.Status {
	st := status.New(code, message)
	if len(details) > 0 {
		detailsv1 := slice.Map(details, func(msg proto.Message) protov1.Message {
			return protov1.MessageV1(msg)
		})

		st, _ = st.WithDetails(detailsv1...)
	}
	return st
}

// WithReason returns a new grpc *Status that carries an ErrorInfo detail with
// the given reason and metadata.
func WithReason(code codes.Code, message, reason string, metadata map[string]string) *status.Status {
	return New(code, message, &errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   Domain,
		Metadata: metadata,
	})
}

// Reason returns the reason and metadata of the first ErrorInfo detail of st.
// ok is false if st has no such detail.
func Reason(st *status.Status) (reason string, metadata map[string]string, ok bool) {
	for _, d := range st.Details() {
		if info, isInfo := d.(*errdetails.ErrorInfo); isInfo && info.GetDomain() == Domain {
			return info.GetReason(), info.GetMetadata(), true
		}
	}
	return "", nil, false
}
