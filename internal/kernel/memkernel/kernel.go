package memkernel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/roach88/cellcad/internal/deck"
	"github.com/roach88/cellcad/internal/kernel"
)

// ErrInvalidHandle is returned for handles that were never issued or were retired.
var ErrInvalidHandle = errors.New("invalid handle")

// DefaultSamples is the default IsEmpty resolution. IsEmpty classifies at
// most samples³ boxes per solid.
const DefaultSamples = 20

type body struct {
	node node
	name string
}

// slot is one arena cell. gen counts how many times the slot was reissued.
type slot struct {
	gen  uint32
	body *body
}

func makeHandle(index int, gen uint32) kernel.Handle {
	return kernel.Handle(uint64(gen)<<32 | uint64(index+1))
}

func splitHandle(h kernel.Handle) (index int, gen uint32) {
	return int(uint32(h)) - 1, uint32(uint64(h) >> 32)
}

type group struct {
	name    string
	members []kernel.Handle
}

// Kernel is the in-memory CSG kernel.
//
// Kernel is not safe for concurrent use.
type Kernel struct {
	slots   []slot
	free    []int // retired slot indices, reused lowest first
	groups  []group
	samples int
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithSamples sets the IsEmpty resolution.
func WithSamples(n int) Option {
	return func(k *Kernel) {
		if n > 0 {
			k.samples = n
		}
	}
}

// New creates an empty kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		samples: DefaultSamples,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *Kernel) mint(n node) kernel.Handle {
	b := &body{node: n}
	if len(k.free) > 0 {
		i := k.free[0]
		k.free = k.free[1:]
		k.slots[i].gen++
		k.slots[i].body = b
		return makeHandle(i, k.slots[i].gen)
	}
	k.slots = append(k.slots, slot{body: b})
	return makeHandle(len(k.slots)-1, 0)
}

func (k *Kernel) lookup(h kernel.Handle) *body {
	i, gen := splitHandle(h)
	if i < 0 || i >= len(k.slots) || k.slots[i].gen != gen {
		return nil
	}
	return k.slots[i].body
}

func (k *Kernel) get(h kernel.Handle) (*body, error) {
	b := k.lookup(h)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return b, nil
}

func (k *Kernel) retire(h kernel.Handle) {
	i, _ := splitHandle(h)
	k.slots[i].body = nil
	at := sort.SearchInts(k.free, i)
	k.free = append(k.free, 0)
	copy(k.free[at+1:], k.free[at:])
	k.free[at] = i
}

// CreatePrimitive implements kernel.Kernel.
func (k *Kernel) CreatePrimitive(r kernel.Region) (kernel.Handle, error) {
	if err := r.Validate(); err != nil {
		return kernel.Nil, err
	}
	return k.mint(primNode{r: r}), nil
}

// Copy implements kernel.Kernel.
func (k *Kernel) Copy(h kernel.Handle) (kernel.Handle, error) {
	b, err := k.get(h)
	if err != nil {
		return kernel.Nil, err
	}
	return k.mint(b.node), nil
}

func (k *Kernel) boolean(blank, tool kernel.Handle, combine func(a, b node) node) (kernel.Result, error) {
	if blank == tool {
		return kernel.Result{}, fmt.Errorf("boolean operands must differ: %s", blank)
	}
	a, err := k.get(blank)
	if err != nil {
		return kernel.Result{}, err
	}
	b, err := k.get(tool)
	if err != nil {
		return kernel.Result{}, err
	}
	k.retire(blank)
	k.retire(tool)
	h := k.mint(combine(a.node, b.node))
	return kernel.Result{
		Handle: h,
		Substitutions: []kernel.Substitution{
			{Old: blank, New: h},
			{Old: tool, New: kernel.Nil},
		},
	}, nil
}

// Intersect implements kernel.Kernel.
func (k *Kernel) Intersect(blank, tool kernel.Handle) (kernel.Result, error) {
	return k.boolean(blank, tool, func(a, b node) node { return newIntersectNode(a, b) })
}

// Unite implements kernel.Kernel.
func (k *Kernel) Unite(blank, tool kernel.Handle) (kernel.Result, error) {
	return k.boolean(blank, tool, func(a, b node) node { return newUnionNode(a, b) })
}

// Subtract implements kernel.Kernel.
func (k *Kernel) Subtract(blank, tool kernel.Handle) (kernel.Result, error) {
	return k.boolean(blank, tool, func(a, b node) node { return subtractNode{a: a, b: b} })
}

// Transform implements kernel.Kernel. The moved solid gets a fresh handle.
func (k *Kernel) Transform(h kernel.Handle, t deck.Transform) (kernel.Result, error) {
	b, err := k.get(h)
	if err != nil {
		return kernel.Result{}, err
	}
	k.retire(h)
	moved := k.mint(newTransformNode(b.node, t))
	k.lookup(moved).name = b.name
	return kernel.Result{
		Handle:        moved,
		Substitutions: []kernel.Substitution{{Old: h, New: moved}},
	}, nil
}

// Delete implements kernel.Kernel.
func (k *Kernel) Delete(h kernel.Handle) error {
	if _, err := k.get(h); err != nil {
		return err
	}
	k.retire(h)
	return nil
}

// IsEmpty implements kernel.Kernel.
//
// A solid is empty only when that is proven: its bounds have no volume, it
// meets some surface from both sides, or subdividing its bounds classifies
// every box as outside. Searches that stay inconclusive report occupied, so
// thin slivers are never lost.
func (k *Kernel) IsEmpty(h kernel.Handle) (bool, error) {
	b, err := k.get(h)
	if err != nil {
		return false, err
	}
	box := b.node.bounds()
	for i := 0; i < 3; i++ {
		// Zero-thickness overlaps (touching faces) enclose no volume.
		if box.Max[i] <= box.Min[i] {
			return true, nil
		}
	}
	if opposedSurfaces(b.node) {
		return true, nil
	}
	return !occupied(b.node, box, k.samples*k.samples*k.samples), nil
}

// BoundingBox implements kernel.Kernel.
func (k *Kernel) BoundingBox(h kernel.Handle) (kernel.Box, error) {
	b, err := k.get(h)
	if err != nil {
		return kernel.Box{}, err
	}
	return b.node.bounds(), nil
}

// Contains reports whether point p lies inside solid h.
func (k *Kernel) Contains(h kernel.Handle, p deck.Vec3) (bool, error) {
	b, err := k.get(h)
	if err != nil {
		return false, err
	}
	return b.node.contains(p), nil
}

// Valid implements kernel.Kernel.
func (k *Kernel) Valid(h kernel.Handle) bool {
	return k.lookup(h) != nil
}

// Bodies implements kernel.Kernel. Handles are returned in arena slot order.
func (k *Kernel) Bodies() []kernel.Handle {
	var out []kernel.Handle
	for i, s := range k.slots {
		if s.body != nil {
			out = append(out, makeHandle(i, s.gen))
		}
	}
	return out
}

// SetName implements kernel.Kernel.
func (k *Kernel) SetName(h kernel.Handle, name string) error {
	b, err := k.get(h)
	if err != nil {
		return err
	}
	b.name = name
	return nil
}

// Name returns the kernel-visible name of h.
func (k *Kernel) Name(h kernel.Handle) (string, error) {
	b, err := k.get(h)
	if err != nil {
		return "", err
	}
	return b.name, nil
}

// CreateGroup implements kernel.Kernel.
func (k *Kernel) CreateGroup(name string, hs []kernel.Handle) error {
	if name == "" {
		return fmt.Errorf("group name is empty")
	}
	for _, g := range k.groups {
		if g.name == name {
			return fmt.Errorf("group %q already exists", name)
		}
	}
	for _, h := range hs {
		if _, err := k.get(h); err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
	}
	k.groups = append(k.groups, group{name: name, members: append([]kernel.Handle(nil), hs...)})
	return nil
}

// Group returns the members of a created group.
func (k *Kernel) Group(name string) ([]kernel.Handle, bool) {
	for _, g := range k.groups {
		if g.name == name {
			return append([]kernel.Handle(nil), g.members...), true
		}
	}
	return nil, false
}

// Imprint implements kernel.Kernel.
//
// Imprinting rewrites the topology of every participating body, so each
// body is re-issued under a fresh handle in input order.
func (k *Kernel) Imprint(hs []kernel.Handle) ([]kernel.Substitution, error) {
	for _, h := range hs {
		if _, err := k.get(h); err != nil {
			return nil, fmt.Errorf("imprint: %w", err)
		}
	}
	subs := make([]kernel.Substitution, 0, len(hs))
	// Retire every participant before reissuing so no new handle can
	// collide with a pending old one.
	var bodies []*body
	var olds []kernel.Handle
	for _, h := range hs {
		b := k.lookup(h)
		if b == nil {
			// Duplicate in hs; already retired.
			continue
		}
		bodies = append(bodies, b)
		olds = append(olds, h)
		k.retire(h)
	}
	for i, b := range bodies {
		nh := k.mint(b.node)
		k.lookup(nh).name = b.name
		subs = append(subs, kernel.Substitution{Old: olds[i], New: nh})
	}
	return subs, nil
}

// Merge implements kernel.Kernel. Merging keeps every handle.
func (k *Kernel) Merge(hs []kernel.Handle, tolerance float64) ([]kernel.Substitution, error) {
	if math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return nil, fmt.Errorf("merge: tolerance %g is not finite", tolerance)
	}
	for _, h := range hs {
		if _, err := k.get(h); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
	}
	return nil, nil
}

var _ kernel.Kernel = (*Kernel)(nil)
