package core

import "fmt"

// Registry is the authoritative tool catalog: name -> (descriptor,
// handler), built once at process start. It has no runtime mutation API;
// adding a tool means extending the registration code. Reads need no
// locking because the maps are never written after startup.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering an empty or duplicate name is a
// programming error and panics at startup.
func (r *Registry) Register(t Tool) {
	if t.Name == "" {
		panic("core: tool registered with empty name")
	}
	if t.Handler == nil {
		panic(fmt.Sprintf("core: tool %q registered with nil handler", t.Name))
	}
	if _, exists := r.tools[t.Name]; exists {
		panic(fmt.Sprintf("core: tool %q registered twice", t.Name))
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// Resolve returns the handler bound to name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return t.Handler, true
}

// Describe returns the descriptor for name.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	t, ok := r.tools[name]
	return t.Descriptor, ok
}
