package kernel

import (
	"fmt"
	"strings"

	"github.com/roach88/cellcad/internal/deck"
)

// Operation names recorded in the journal.
const (
	OpCreate      = "create"
	OpCopy        = "copy"
	OpIntersect   = "intersect"
	OpUnite       = "unite"
	OpSubtract    = "subtract"
	OpTransform   = "transform"
	OpDelete      = "delete"
	OpIsEmpty     = "is_empty"
	OpBoundingBox = "bbox"
	OpSetName     = "set_name"
	OpCreateGroup = "create_group"
	OpImprint     = "imprint"
	OpMerge       = "merge"
)

// Operation is one journaled kernel call.
type Operation struct {
	Seq           int64          `json:"seq"`
	Op            string         `json:"op"`
	Operands      []Handle       `json:"operands,omitempty"`
	Result        Handle         `json:"result,omitempty"`
	Substitutions []Substitution `json:"substitutions,omitempty"`
	Detail        string         `json:"detail,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// String renders the operation as one journal line.
//
// Format: "<seq> <op> <operands...> -> <result> [old->new ...] (detail)"
func (o Operation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d %s", o.Seq, o.Op)
	for _, h := range o.Operands {
		b.WriteString(" ")
		b.WriteString(h.String())
	}
	if o.Result != Nil {
		fmt.Fprintf(&b, " -> %s", o.Result)
	}
	if len(o.Substitutions) > 0 {
		parts := make([]string, len(o.Substitutions))
		for i, s := range o.Substitutions {
			parts[i] = s.Old.String() + "->" + s.New.String()
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, " "))
	}
	if o.Detail != "" {
		fmt.Fprintf(&b, " (%s)", o.Detail)
	}
	if o.Error != "" {
		fmt.Fprintf(&b, " ERROR: %s", o.Error)
	}
	return b.String()
}

// OperationObserver is notified after every journaled call.
type OperationObserver interface {
	ObserveOperation(op string, failed bool)
}

// Recorder is a Kernel decorator that journals every call.
//
// Recorder is not safe for concurrent use; neither are the kernels it wraps.
type Recorder struct {
	inner    Kernel
	clock    *Clock
	ops      []Operation
	observer OperationObserver
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock stamps operations from the given clock.
func WithClock(c *Clock) RecorderOption {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithObserver reports every operation to o.
func WithObserver(o OperationObserver) RecorderOption {
	return func(r *Recorder) {
		r.observer = o
	}
}

// NewRecorder wraps inner with a journal.
func NewRecorder(inner Kernel, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		inner: inner,
		clock: NewClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Operations returns a copy of the journal in seq order.
func (r *Recorder) Operations() []Operation {
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

func (r *Recorder) record(op Operation, err error) {
	op.Seq = r.clock.Next()
	if err != nil {
		op.Error = err.Error()
	}
	r.ops = append(r.ops, op)
	if r.observer != nil {
		r.observer.ObserveOperation(op.Op, err != nil)
	}
}

func regionDetail(reg Region) string {
	if reg.Outside {
		return string(reg.Kind) + ",outside"
	}
	return string(reg.Kind)
}

// CreatePrimitive implements Kernel.
func (r *Recorder) CreatePrimitive(reg Region) (Handle, error) {
	h, err := r.inner.CreatePrimitive(reg)
	r.record(Operation{Op: OpCreate, Result: h, Detail: regionDetail(reg)}, err)
	return h, err
}

// Copy implements Kernel.
func (r *Recorder) Copy(h Handle) (Handle, error) {
	c, err := r.inner.Copy(h)
	r.record(Operation{Op: OpCopy, Operands: []Handle{h}, Result: c}, err)
	return c, err
}

func (r *Recorder) boolean(op string, blank, tool Handle, fn func(Handle, Handle) (Result, error)) (Result, error) {
	res, err := fn(blank, tool)
	r.record(Operation{
		Op:            op,
		Operands:      []Handle{blank, tool},
		Result:        res.Handle,
		Substitutions: res.Substitutions,
	}, err)
	return res, err
}

// Intersect implements Kernel.
func (r *Recorder) Intersect(blank, tool Handle) (Result, error) {
	return r.boolean(OpIntersect, blank, tool, r.inner.Intersect)
}

// Unite implements Kernel.
func (r *Recorder) Unite(blank, tool Handle) (Result, error) {
	return r.boolean(OpUnite, blank, tool, r.inner.Unite)
}

// Subtract implements Kernel.
func (r *Recorder) Subtract(blank, tool Handle) (Result, error) {
	return r.boolean(OpSubtract, blank, tool, r.inner.Subtract)
}

// Transform implements Kernel.
func (r *Recorder) Transform(h Handle, t deck.Transform) (Result, error) {
	res, err := r.inner.Transform(h, t)
	detail := fmt.Sprintf("t=%g,%g,%g", t.Translation[0], t.Translation[1], t.Translation[2])
	if t.Rotation != nil {
		detail += " rot"
	}
	r.record(Operation{
		Op:            OpTransform,
		Operands:      []Handle{h},
		Result:        res.Handle,
		Substitutions: res.Substitutions,
		Detail:        detail,
	}, err)
	return res, err
}

// Delete implements Kernel.
func (r *Recorder) Delete(h Handle) error {
	err := r.inner.Delete(h)
	r.record(Operation{Op: OpDelete, Operands: []Handle{h}}, err)
	return err
}

// IsEmpty implements Kernel.
func (r *Recorder) IsEmpty(h Handle) (bool, error) {
	empty, err := r.inner.IsEmpty(h)
	r.record(Operation{Op: OpIsEmpty, Operands: []Handle{h}, Detail: fmt.Sprintf("%t", empty)}, err)
	return empty, err
}

// BoundingBox implements Kernel.
func (r *Recorder) BoundingBox(h Handle) (Box, error) {
	b, err := r.inner.BoundingBox(h)
	r.record(Operation{Op: OpBoundingBox, Operands: []Handle{h}}, err)
	return b, err
}

// Valid implements Kernel. Validity checks are not journaled.
func (r *Recorder) Valid(h Handle) bool {
	return r.inner.Valid(h)
}

// Bodies implements Kernel. Snapshots are not journaled.
func (r *Recorder) Bodies() []Handle {
	return r.inner.Bodies()
}

// SetName implements Kernel.
func (r *Recorder) SetName(h Handle, name string) error {
	err := r.inner.SetName(h, name)
	r.record(Operation{Op: OpSetName, Operands: []Handle{h}, Detail: name}, err)
	return err
}

// CreateGroup implements Kernel.
func (r *Recorder) CreateGroup(name string, hs []Handle) error {
	err := r.inner.CreateGroup(name, hs)
	r.record(Operation{Op: OpCreateGroup, Operands: append([]Handle(nil), hs...), Detail: name}, err)
	return err
}

// Imprint implements Kernel.
func (r *Recorder) Imprint(hs []Handle) ([]Substitution, error) {
	subs, err := r.inner.Imprint(hs)
	r.record(Operation{Op: OpImprint, Operands: append([]Handle(nil), hs...), Substitutions: subs}, err)
	return subs, err
}

// Merge implements Kernel.
func (r *Recorder) Merge(hs []Handle, tolerance float64) ([]Substitution, error) {
	subs, err := r.inner.Merge(hs, tolerance)
	op := Operation{Op: OpMerge, Operands: append([]Handle(nil), hs...), Substitutions: subs}
	if tolerance > 0 {
		op.Detail = fmt.Sprintf("tolerance=%g", tolerance)
	}
	r.record(op, err)
	return subs, err
}

var _ Kernel = (*Recorder)(nil)
