package geometry

import (
	"sort"

	"github.com/roach88/cellcad/internal/kernel"
)

// NamedGroup is a name plus an ordered collection of solids.
type NamedGroup struct {
	name    string
	handles []kernel.Handle
}

// NewNamedGroup creates an empty group.
func NewNamedGroup(name string) *NamedGroup {
	return &NamedGroup{name: name}
}

// Name returns the group name.
func (g *NamedGroup) Name() string { return g.name }

// Handles returns a copy of the members in insertion order.
func (g *NamedGroup) Handles() []kernel.Handle {
	return append([]kernel.Handle(nil), g.handles...)
}

// Len returns the number of members.
func (g *NamedGroup) Len() int { return len(g.handles) }

// Add appends h unless it is already a member.
func (g *NamedGroup) Add(h kernel.Handle) {
	if h == kernel.Nil || g.Contains(h) {
		return
	}
	g.handles = append(g.handles, h)
}

// Contains reports whether h is a member.
func (g *NamedGroup) Contains(h kernel.Handle) bool {
	for _, m := range g.handles {
		if m == h {
			return true
		}
	}
	return false
}

// Update replaces from with to in place, or removes from when to is Nil
// or already a member. Reports whether from was a member.
func (g *NamedGroup) Update(from, to kernel.Handle) bool {
	for i, m := range g.handles {
		if m != from {
			continue
		}
		if to == kernel.Nil || g.Contains(to) {
			g.handles = append(g.handles[:i], g.handles[i+1:]...)
		} else {
			g.handles[i] = to
		}
		return true
	}
	return false
}

// NamedEntity binds one solid to a name.
type NamedEntity struct {
	handle kernel.Handle
	name   string
}

// NewNamedEntity creates a named entity.
func NewNamedEntity(h kernel.Handle, name string) *NamedEntity {
	return &NamedEntity{handle: h, name: name}
}

// Handle returns the current solid.
func (e *NamedEntity) Handle() kernel.Handle { return e.handle }

// Name returns the entity name.
func (e *NamedEntity) Name() string { return e.name }

// SetHandle rebinds the entity to h.
func (e *NamedEntity) SetHandle(h kernel.Handle) { e.handle = h }

// Registry holds the named groups and named entities of one build.
//
// The registry is mutated only by tagging and by Tracker.UpdateMaps.
type Registry struct {
	groups   map[string]*NamedGroup
	entities []*NamedEntity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*NamedGroup)}
}

// Group returns the named group, creating it on first request.
func (r *Registry) Group(name string) *NamedGroup {
	g, ok := r.groups[name]
	if !ok {
		g = NewNamedGroup(name)
		r.groups[name] = g
	}
	return g
}

// LookupGroup returns an existing group.
func (r *Registry) LookupGroup(name string) (*NamedGroup, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// GroupNames returns every group name in sorted order.
func (r *Registry) GroupNames() []string {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddEntity registers a named entity for h.
func (r *Registry) AddEntity(h kernel.Handle, name string) *NamedEntity {
	e := NewNamedEntity(h, name)
	r.entities = append(r.entities, e)
	return e
}

// Entities returns the named entities in creation order.
func (r *Registry) Entities() []*NamedEntity {
	return append([]*NamedEntity(nil), r.entities...)
}

// update propagates one substitution. Entities whose solid was consumed
// are dropped.
func (r *Registry) update(from, to kernel.Handle) {
	for _, g := range r.groups {
		g.Update(from, to)
	}
	kept := r.entities[:0]
	for _, e := range r.entities {
		if e.handle == from {
			if to == kernel.Nil {
				continue
			}
			e.SetHandle(to)
		}
		kept = append(kept, e)
	}
	r.entities = kept
}

// LiveHandles returns every handle referenced by a group or entity, sorted.
func (r *Registry) LiveHandles() []kernel.Handle {
	seen := make(map[kernel.Handle]bool)
	for _, g := range r.groups {
		for _, h := range g.handles {
			seen[h] = true
		}
	}
	for _, e := range r.entities {
		seen[e.handle] = true
	}
	out := make([]kernel.Handle, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
