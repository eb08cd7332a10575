package geometry

import "github.com/roach88/cellcad/internal/kernel"

// HandleSet is an ordered working set of solids kept current by a Tracker.
//
// A set is only updated while it is tracked (between Tracker.Track and
// Tracker.Release).
type HandleSet struct {
	handles []kernel.Handle
}

// Len returns the number of handles.
func (s *HandleSet) Len() int { return len(s.handles) }

// At returns the i-th handle.
func (s *HandleSet) At(i int) kernel.Handle { return s.handles[i] }

// Last returns the last handle, or Nil for an empty set.
func (s *HandleSet) Last() kernel.Handle {
	if len(s.handles) == 0 {
		return kernel.Nil
	}
	return s.handles[len(s.handles)-1]
}

// Handles returns a copy of the set.
func (s *HandleSet) Handles() []kernel.Handle {
	return append([]kernel.Handle(nil), s.handles...)
}

// Add appends handles, skipping Nil.
func (s *HandleSet) Add(hs ...kernel.Handle) {
	for _, h := range hs {
		if h != kernel.Nil {
			s.handles = append(s.handles, h)
		}
	}
}

func (s *HandleSet) update(from, to kernel.Handle) {
	for i := 0; i < len(s.handles); i++ {
		if s.handles[i] != from {
			continue
		}
		if to == kernel.Nil {
			s.handles = append(s.handles[:i], s.handles[i+1:]...)
			i--
			continue
		}
		s.handles[i] = to
	}
}
