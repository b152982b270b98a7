package handler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrDuplicateHandler is returned by a strict Registry when a handler is
// registered for a type name that already has one.
var ErrDuplicateHandler = errors.New("duplicate handler")

// Registry maps type names to handlers. Registering a handler for a name that
// is already taken replaces the previous handler, unless the Registry was
// created with the Strict option.
type Registry[P, R any] struct {
	strict bool

	mux      sync.RWMutex
	handlers map[string]Handler[P, R]
}

// Option is an option for a Registry.
type Option func(*config)

type config struct {
	strict bool
}

// Strict returns an Option that makes the Registry reject duplicate
// registrations with ErrDuplicateHandler.
func Strict() Option {
	return func(cfg *config) {
		cfg.strict = true
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry[P, R any](opts ...Option) *Registry[P, R] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry[P, R]{
		strict:   cfg.strict,
		handlers: make(map[string]Handler[P, R]),
	}
}

// Insert registers fn as the handler for payloads with the given type name.
// Payload bytes are decoded using c before they are passed to fn.
func Insert[T, P, R any](reg *Registry[P, R], typeName string, c codec.Codec[T], fn Func[T, P, R]) error {
	return reg.Register(typeName, New(c, fn))
}

// Register registers h for the given type name.
func (reg *Registry[P, R]) Register(typeName string, h Handler[P, R]) error {
	reg.mux.Lock()
	defer reg.mux.Unlock()

	if _, ok := reg.handlers[typeName]; ok && reg.strict {
		return fmt.Errorf("%w [type=%v]", ErrDuplicateHandler, typeName)
	}
	reg.handlers[typeName] = h

	return nil
}

// Get returns the handler for the given type name.
func (reg *Registry[P, R]) Get(typeName string) (Handler[P, R], bool) {
	reg.mux.RLock()
	defer reg.mux.RUnlock()
	h, ok := reg.handlers[typeName]
	return h, ok
}

// Names returns the registered type names in lexical order.
func (reg *Registry[P, R]) Names() []string {
	reg.mux.RLock()
	defer reg.mux.RUnlock()
	names := maps.Keys(reg.handlers)
	slices.Sort(names)
	return names
}

// Len returns the number of registered handlers.
func (reg *Registry[P, R]) Len() int {
	reg.mux.RLock()
	defer reg.mux.RUnlock()
	return len(reg.handlers)
}
