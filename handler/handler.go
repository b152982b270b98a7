// Package handler provides a registry of type-erased handlers keyed by a type
// name. A handler pairs the decoder of a payload type with the function that
// applies the decoded value to a projection, so that handlers with different
// payload types can live in the same registry.
package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeroenvanmaanen/dendrite/codec"
)

// ErrDecode is returned when the payload bytes passed to a handler cannot be
// decoded into the payload type of the handler.
var ErrDecode = errors.New("decode payload")

// Handler decodes raw payload bytes and applies the decoded value to a
// projection of type P, producing a result of type R.
type Handler[P, R any] interface {
	Handle(ctx context.Context, data []byte, projection P) (R, error)
}

// Func is the handler function for payloads of type T.
type Func[T, P, R any] func(ctx context.Context, payload T, projection P) (R, error)

type handler[T, P, R any] struct {
	codec codec.Codec[T]
	apply Func[T, P, R]
}

// New returns a Handler that decodes payloads using c and passes them to fn.
func New[T, P, R any](c codec.Codec[T], fn Func[T, P, R]) Handler[P, R] {
	if c == nil {
		panic("[dendrite/handler.New] nil codec")
	}
	if fn == nil {
		panic("[dendrite/handler.New] nil handler func")
	}
	return &handler[T, P, R]{codec: c, apply: fn}
}

func (h *handler[T, P, R]) Handle(ctx context.Context, data []byte, projection P) (R, error) {
	payload, err := h.codec.Unmarshal(data)
	if err != nil {
		var zero R
		return zero, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return h.apply(ctx, payload, projection)
}
