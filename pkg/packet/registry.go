package packet

import (
	"fmt"
	"sync"
)

// Factory builds a fresh instance of a header class.
type Factory func() Header

// Binding is one edge of the protocol graph: after a src-class header,
// a Target-class header may follow when the named discriminator field
// matches. Match nil means exact equality with Value; a non-nil Match
// is a predicate over the decoded value, with Value still used as the
// discriminator written when linking headers at construction time.
type Binding struct {
	Field  string
	Value  uint64
	Match  func(v uint64) bool
	Target string
}

func (b Binding) matches(v uint64) bool {
	if b.Match != nil {
		return b.Match(v)
	}
	return v == b.Value
}

// Registry holds the known header classes and the bindings between
// them. Registration order is recorded and is the documented tiebreak
// for the first-header heuristic and for overlapping bindings: first
// registered wins. The registry is read-mostly after start-up; callers
// must not register concurrently with parsing.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string
	bindings  map[string][]Binding
}

// NewRegistry returns an empty registry. Tests build isolated ones
// instead of mutating the process-wide default.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		bindings:  make(map[string][]Binding),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry protocol definitions attach
// to at start-up.
func Default() *Registry { return defaultRegistry }

// SetDefault swaps the process-wide registry. Intended for embedders
// that assemble their own protocol set before any parsing starts.
func SetDefault(r *Registry) { defaultRegistry = r }

// Register adds a header class under its protocol name. Registering an
// empty name or the same name twice panics: protocol definitions are
// wired at start-up and a collision is a programming error.
func (r *Registry) Register(name string, f Factory) {
	if name == "" {
		panic("stratum: header class with empty protocol name")
	}
	if f == nil {
		panic(fmt.Sprintf("stratum: header class %s has nil factory", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("stratum: header class %s registered twice", name))
	}
	r.factories[name] = f
	r.order = append(r.order, name)
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Protocols returns the registered protocol names in registration order.
func (r *Registry) Protocols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Bind registers an edge src → dst taken when src's discriminator field
// equals value. The same value is written into the field when headers
// are linked at construction time.
func (r *Registry) Bind(src, dst, field string, value uint64) {
	r.addBinding(src, Binding{Field: field, Value: value, Target: dst})
}

// BindWhen registers a predicate edge src → dst taken when match holds
// over the decoded discriminator; value is written when linking at
// construction time.
func (r *Registry) BindWhen(src, dst, field string, value uint64, match func(uint64) bool) {
	r.addBinding(src, Binding{Field: field, Value: value, Match: match, Target: dst})
}

func (r *Registry) addBinding(src string, b Binding) {
	if src == "" || b.Target == "" || b.Field == "" {
		panic("stratum: binding needs source class, target class and field name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[src] = append(r.bindings[src], b)
}

// Unbind removes every src → dst edge.
func (r *Registry) Unbind(src, dst string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.bindings[src][:0]
	for _, b := range r.bindings[src] {
		if b.Target != dst {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		delete(r.bindings, src)
		return
	}
	r.bindings[src] = kept
}

// Bindings returns the outgoing edges of src in registration order.
func (r *Registry) Bindings(src string) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Binding, len(r.bindings[src]))
	copy(out, r.bindings[src])
	return out
}

// hasOutgoing reports whether src participates in the graph as a
// source, which is what qualifies it for the first-header heuristic.
func (r *Registry) hasOutgoing(src string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings[src]) > 0
}

// findBinding returns the first registered src → dst edge.
func (r *Registry) findBinding(src, dst string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bindings[src] {
		if b.Target == dst {
			return b, true
		}
	}
	return Binding{}, false
}
