package tracker

// Unset marks a Position field that has no value yet.
const Unset = -1

// Position is the reader's location in the token sequence.
// Every field is a token index or Unset.
type Position struct {
	Start  int `json:"start"`  // End of the last committed (final) match
	Search int `json:"search"` // Anchor of the next text region
	End    int `json:"end"`    // Current best guess of the reading position
	Bounds int `json:"bounds"` // One past the last token of the current text region
}

// UnsetPosition returns a position with every field unset.
func UnsetPosition() Position {
	return Position{Start: Unset, Search: Unset, End: Unset, Bounds: Unset}
}

// IsUnset returns true if no field has a value.
func (p Position) IsUnset() bool {
	return p == UnsetPosition()
}

// clamp limits every set field to at most last. A negative last unsets them.
func (p Position) clamp(last int) Position {
	limit := func(v int) int {
		if v == Unset || v <= last {
			return v
		}
		return last
	}
	return Position{
		Start:  limit(p.Start),
		Search: limit(p.Search),
		End:    limit(p.End),
		Bounds: limit(p.Bounds),
	}
}

// PositionUpdate carries the fields to merge into a Position. Nil fields are kept.
type PositionUpdate struct {
	Start  *int
	Search *int
	End    *int
	Bounds *int
}

// Index returns a pointer to i for building a PositionUpdate.
func Index(i int) *int {
	return &i
}

// apply merges u into p.
func (u PositionUpdate) apply(p Position) Position {
	if u.Start != nil {
		p.Start = *u.Start
	}
	if u.Search != nil {
		p.Search = *u.Search
	}
	if u.End != nil {
		p.End = *u.End
	}
	if u.Bounds != nil {
		p.Bounds = *u.Bounds
	}
	return p
}
