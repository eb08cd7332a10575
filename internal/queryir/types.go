package queryir

// Predicate represents a filter condition on journal operations.
// Sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Operations selects the journal of one run.
type Operations struct {
	Run    string    // run id
	Filter Predicate // nil = every operation
	Limit  int       // 0 = unlimited
}

// OpIs matches operations with the given name ("intersect", "delete", ...).
type OpIs struct {
	Op string
}

func (OpIs) predicateNode() {}

// Involves matches operations touching a handle in any role.
type Involves struct {
	Handle uint64
}

func (Involves) predicateNode() {}

// Failed matches operations the kernel rejected.
type Failed struct{}

func (Failed) predicateNode() {}

// SeqRange matches From <= seq <= To. To == 0 leaves the range open.
type SeqRange struct {
	From int64
	To   int64
}

func (SeqRange) predicateNode() {}

// And matches when every predicate matches (empty = always true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or matches when any predicate matches (empty = never).
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// AllOf builds a conjunction, skipping nil predicates. It returns nil when
// nothing remains and the single predicate when only one does.
func AllOf(ps ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range ps {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
