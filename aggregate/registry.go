package aggregate

import (
	"fmt"
	"sync"

	"github.com/jeroenvanmaanen/dendrite/internal/slice"
	"golang.org/x/exp/slices"
)

// Registry holds the aggregates of a worker in insertion order.
type Registry struct {
	strict bool

	mux     sync.RWMutex
	order   []string
	handles map[string]Handle
}

// Option is an option for a Registry.
type Option func(*Registry)

// Strict returns an Option that makes the Registry reject duplicate aggregate
// names and commands that are handled by more than one aggregate.
func Strict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{handles: make(map[string]Handle)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Insert adds an aggregate. An aggregate with the same name is replaced and
// keeps its position.
func (r *Registry) Insert(h Handle) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	name := h.Name()
	if _, ok := r.handles[name]; ok {
		if r.strict {
			return fmt.Errorf("%w [aggregate=%v]", ErrDuplicateAggregate, name)
		}
	} else {
		r.order = append(r.order, name)
	}
	r.handles[name] = h

	return nil
}

// Get returns the aggregate with the given name.
func (r *Registry) Get(name string) (Handle, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// Names returns the aggregate names in insertion order.
func (r *Registry) Names() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return slices.Clone(r.order)
}

// Register appends the names of all commands handled by the registered
// aggregates to commands and maps each command name to its aggregate in
// mapping. When aggregates share a command, the one inserted last wins, or, in
// strict mode, Register fails with ErrDuplicateCommand.
func (r *Registry) Register(commands *[]string, mapping map[string]string) error {
	r.mux.RLock()
	defer r.mux.RUnlock()

	for _, name := range r.order {
		for _, cmd := range r.handles[name].CommandNames() {
			prev, ok := mapping[cmd]
			if ok && prev != name && r.strict {
				return fmt.Errorf("%w [command=%v, aggregates=%v,%v]", ErrDuplicateCommand, cmd, prev, name)
			}
			*commands = append(*commands, cmd)
			mapping[cmd] = name
		}
	}
	*commands = slice.Unique(*commands)

	return nil
}

// Routes returns the routing table of the registered aggregates.
func (r *Registry) Routes() (Routing, error) {
	rt := Routing{aggregates: make(map[string]string)}
	if err := r.Register(&rt.commands, rt.aggregates); err != nil {
		return Routing{}, err
	}
	return rt, nil
}

// Routing maps command names to aggregate names.
type Routing struct {
	commands   []string
	aggregates map[string]string
}

// Commands returns the routed command names.
func (rt Routing) Commands() []string {
	return slices.Clone(rt.commands)
}

// Lookup returns the name of the aggregate that handles the given command.
func (rt Routing) Lookup(command string) (string, bool) {
	name, ok := rt.aggregates[command]
	return name, ok
}
