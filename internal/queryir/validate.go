package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/cellcad/internal/kernel"
)

// KnownOps lists the operation names a journal can contain.
var KnownOps = map[string]bool{
	kernel.OpCreate:      true,
	kernel.OpCopy:        true,
	kernel.OpIntersect:   true,
	kernel.OpUnite:       true,
	kernel.OpSubtract:    true,
	kernel.OpTransform:   true,
	kernel.OpDelete:      true,
	kernel.OpIsEmpty:     true,
	kernel.OpBoundingBox: true,
	kernel.OpSetName:     true,
	kernel.OpCreateGroup: true,
	kernel.OpImprint:     true,
	kernel.OpMerge:       true,
}

// Validate checks a query for mistakes that would silently match nothing.
// Returns all problems found.
func Validate(q Operations) []string {
	v := &validator{}
	if strings.TrimSpace(q.Run) == "" {
		v.add("run id is required")
	}
	if q.Limit < 0 {
		v.add("limit %d is negative", q.Limit)
	}
	v.predicate(q.Filter)
	return v.problems
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) predicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case OpIs:
		if !KnownOps[pred.Op] {
			v.add("unknown operation %q", pred.Op)
		}
	case Involves:
		if pred.Handle == 0 {
			v.add("handle 0 is never journaled")
		}
	case Failed:
	case SeqRange:
		if pred.From < 0 {
			v.add("seq range start %d is negative", pred.From)
		}
		if pred.To != 0 && pred.To < pred.From {
			v.add("seq range [%d, %d] is empty", pred.From, pred.To)
		}
	case And:
		for _, c := range pred.Predicates {
			v.predicate(c)
		}
	case Or:
		if len(pred.Predicates) == 0 {
			v.add("empty disjunction matches nothing")
		}
		for _, c := range pred.Predicates {
			v.predicate(c)
		}
	default:
		v.add("unknown predicate type %T", p)
	}
}
