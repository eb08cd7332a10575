package geometry

import (
	"fmt"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

// Tracker routes solid-altering kernel calls and keeps every registry and
// working set pointing at live handles.
//
// INVARIANT: when a Tracker method returns, no tracked set, group or
// entity references a handle the kernel retired during the call.
type Tracker struct {
	k    kernel.Kernel
	reg  *Registry
	sets []*HandleSet
}

// NewTracker creates a tracker over k that maintains reg.
func NewTracker(k kernel.Kernel, reg *Registry) *Tracker {
	return &Tracker{k: k, reg: reg}
}

// Kernel returns the tracked kernel.
func (t *Tracker) Kernel() kernel.Kernel { return t.k }

// Registry returns the maintained registry.
func (t *Tracker) Registry() *Registry { return t.reg }

// Track starts a working set holding hs.
func (t *Tracker) Track(hs ...kernel.Handle) *HandleSet {
	s := &HandleSet{}
	s.Add(hs...)
	t.sets = append(t.sets, s)
	return s
}

// Release stops updating s.
func (t *Tracker) Release(s *HandleSet) {
	for i, x := range t.sets {
		if x == s {
			t.sets = append(t.sets[:i], t.sets[i+1:]...)
			return
		}
	}
}

// UpdateMaps propagates one handle substitution into the registry and every
// tracked set. A Nil replacement removes the handle everywhere.
func (t *Tracker) UpdateMaps(from, to kernel.Handle) {
	if from == to {
		return
	}
	t.reg.update(from, to)
	for _, s := range t.sets {
		s.update(from, to)
	}
}

func (t *Tracker) apply(subs []kernel.Substitution) {
	for _, sub := range subs {
		t.UpdateMaps(sub.Old, sub.New)
	}
}

// CreatePrimitive builds a primitive. Nothing is retired.
func (t *Tracker) CreatePrimitive(r kernel.Region) (kernel.Handle, error) {
	return t.k.CreatePrimitive(r)
}

// Copy duplicates h. Nothing is retired.
func (t *Tracker) Copy(h kernel.Handle) (kernel.Handle, error) {
	return t.k.Copy(h)
}

// Intersect intersects blank with tool and returns the surviving handle.
func (t *Tracker) Intersect(blank, tool kernel.Handle) (kernel.Handle, error) {
	res, err := t.k.Intersect(blank, tool)
	if err != nil {
		return kernel.Nil, fmt.Errorf("intersect %s with %s: %w", blank, tool, err)
	}
	t.apply(res.Substitutions)
	return res.Handle, nil
}

// Unite unites blank with tool and returns the surviving handle.
func (t *Tracker) Unite(blank, tool kernel.Handle) (kernel.Handle, error) {
	res, err := t.k.Unite(blank, tool)
	if err != nil {
		return kernel.Nil, fmt.Errorf("unite %s with %s: %w", blank, tool, err)
	}
	t.apply(res.Substitutions)
	return res.Handle, nil
}

// Subtract removes tool from blank and returns the surviving handle.
func (t *Tracker) Subtract(blank, tool kernel.Handle) (kernel.Handle, error) {
	res, err := t.k.Subtract(blank, tool)
	if err != nil {
		return kernel.Nil, fmt.Errorf("subtract %s from %s: %w", tool, blank, err)
	}
	t.apply(res.Substitutions)
	return res.Handle, nil
}

// Transform moves h and returns its current handle. Identity transforms
// are not sent to the kernel.
func (t *Tracker) Transform(h kernel.Handle, tr deck.Transform) (kernel.Handle, error) {
	if tr.IsIdentity() {
		return h, nil
	}
	res, err := t.k.Transform(h, tr)
	if err != nil {
		return kernel.Nil, fmt.Errorf("transform %s: %w", h, err)
	}
	t.apply(res.Substitutions)
	return res.Handle, nil
}

// Delete retires h everywhere.
func (t *Tracker) Delete(h kernel.Handle) error {
	if err := t.k.Delete(h); err != nil {
		return fmt.Errorf("delete %s: %w", h, err)
	}
	t.UpdateMaps(h, kernel.Nil)
	return nil
}

// IsEmpty asks the kernel whether h encloses any volume.
func (t *Tracker) IsEmpty(h kernel.Handle) (bool, error) {
	return t.k.IsEmpty(h)
}

// BoundingBox returns h's bounding box.
func (t *Tracker) BoundingBox(h kernel.Handle) (kernel.Box, error) {
	return t.k.BoundingBox(h)
}

// Imprint imprints hs against each other.
func (t *Tracker) Imprint(hs []kernel.Handle) error {
	subs, err := t.k.Imprint(hs)
	if err != nil {
		return fmt.Errorf("imprint: %w", err)
	}
	t.apply(subs)
	return nil
}

// Merge merges coincident topology of hs.
func (t *Tracker) Merge(hs []kernel.Handle, tolerance float64) error {
	subs, err := t.k.Merge(hs, tolerance)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	t.apply(subs)
	return nil
}

// MapSanityCheck verifies the registry against a fresh kernel snapshot.
//
// It fails with a consistency error when a group or entity references a
// retired handle, when a result handle is retired, when the result set does
// not hold count solids, or when the kernel holds solids outside the result
// set.
func (t *Tracker) MapSanityCheck(handles []kernel.Handle, count int) error {
	bodies := t.k.Bodies()
	live := make(map[kernel.Handle]bool, len(bodies))
	for _, h := range bodies {
		live[h] = true
	}

	stale := 0
	for _, h := range t.reg.LiveHandles() {
		if !live[h] {
			stale++
		}
	}
	if stale > 0 {
		return NewConsistencyError(0, stale, "registry references %d retired handles", stale)
	}

	valid := 0
	for _, h := range handles {
		if live[h] {
			valid++
		}
	}
	if valid != len(handles) {
		return NewConsistencyError(len(handles), valid, "%d result handles were retired", len(handles)-valid)
	}
	if len(handles) != count {
		return NewConsistencyError(count, len(handles), "result set holds %d solids, expected %d", len(handles), count)
	}
	if len(bodies) != count {
		return NewConsistencyError(count, len(bodies), "kernel holds %d solids, expected %d", len(bodies), count)
	}
	return nil
}
