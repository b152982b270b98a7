package codec

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrNotFound is returned when trying to encode or decode a type which hasn't
// been registered into a Registry.
var ErrNotFound = errors.New("type not found. forgot to register?")

// A Registry maps type names to codecs so that payloads can be encoded and
// decoded without knowing their Go type at compile time. Use Register to add a
// typed Codec under a name:
//
//	reg := codec.New()
//	codec.Register(reg, "GreetCommand", codec.JSON[GreetCommand]())
//	obj, err := reg.Marshal("GreetCommand", GreetCommand{...})
//	v, err := reg.Unmarshal(obj)
type Registry struct {
	mux     sync.RWMutex
	entries map[string]entry
}

type entry struct {
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte) (any, error)
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register registers c under the given type name. Registering a name twice
// replaces the previous codec.
func Register[T any](r *Registry, name string, c Codec[T]) {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.entries[name] = entry{
		marshal: func(v any) ([]byte, error) {
			tv, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("%w: %q cannot encode %T", ErrTypeMismatch, name, v)
			}
			return c.Marshal(tv)
		},
		unmarshal: func(b []byte) (any, error) {
			return c.Unmarshal(b)
		},
	}
}

// Marshal encodes v with the codec registered under name.
func (r *Registry) Marshal(name string, v any) (SerializedObject, error) {
	r.mux.RLock()
	e, ok := r.entries[name]
	r.mux.RUnlock()

	if !ok {
		return SerializedObject{}, fmt.Errorf("get encoder: %w [name=%v]", ErrNotFound, name)
	}

	b, err := e.marshal(v)
	if err != nil {
		return SerializedObject{}, fmt.Errorf("marshal %q: %w", name, err)
	}

	return SerializedObject{Type: name, Data: b}, nil
}

// Unmarshal decodes obj with the codec registered under obj.Type.
func (r *Registry) Unmarshal(obj SerializedObject) (any, error) {
	r.mux.RLock()
	e, ok := r.entries[obj.Type]
	r.mux.RUnlock()

	if !ok {
		return nil, fmt.Errorf("get decoder: %w [name=%v]", ErrNotFound, obj.Type)
	}

	v, err := e.unmarshal(obj.Data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %q: %w", obj.Type, err)
	}

	return v, nil
}

// Names returns the registered type names in lexical order.
func (r *Registry) Names() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	names := maps.Keys(r.entries)
	slices.Sort(names)
	return names
}
