package definit

// AvailabilitySet is a vector of Kind, one slot per memory element
// (spec.md §3/§4.1: "a vector of N Optional<DIKind>" — the Optional is
// folded into Kind itself via KindUnknown, which doubles as the zero value
// and the "not yet known" state).
type AvailabilitySet struct {
	elems []Kind
}

// NewAvailabilitySet returns a set of n elements, all KindUnknown.
func NewAvailabilitySet(n int) AvailabilitySet {
	return AvailabilitySet{elems: make([]Kind, n)}
}

// Len returns the number of elements.
func (a AvailabilitySet) Len() int { return len(a.elems) }

// Get returns the Kind of element i.
func (a AvailabilitySet) Get(i int) Kind { return a.elems[i] }

// Set assigns element i's Kind directly, overwriting any previous value.
func (a AvailabilitySet) Set(i int, k Kind) { a.elems[i] = k }

// IsAll reports whether every element equals k.
func (a AvailabilitySet) IsAll(k Kind) bool {
	for _, e := range a.elems {
		if e != k {
			return false
		}
	}

	return true
}

// HasAny reports whether any element equals k.
func (a AvailabilitySet) HasAny(k Kind) bool {
	for _, e := range a.elems {
		if e == k {
			return true
		}
	}

	return false
}

// ContainsUnknown reports whether any element is still KindUnknown.
func (a AvailabilitySet) ContainsUnknown() bool {
	return a.HasAny(KindUnknown)
}

// ChangeUnsetTo assigns k to every element currently KindUnknown, leaving
// already-set elements untouched.
func (a AvailabilitySet) ChangeUnsetTo(k Kind) {
	for i, e := range a.elems {
		if e == KindUnknown {
			a.elems[i] = k
		}
	}
}

// MergeIn merges other into a elementwise via Merge, in place. The two
// sets must have equal length.
func (a AvailabilitySet) MergeIn(other AvailabilitySet) {
	for i := range a.elems {
		a.elems[i] = Merge(a.elems[i], other.elems[i])
	}
}

// Clone returns an independent copy.
func (a AvailabilitySet) Clone() AvailabilitySet {
	out := make([]Kind, len(a.elems))
	copy(out, a.elems)

	return AvailabilitySet{elems: out}
}
