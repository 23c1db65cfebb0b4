package timeofday

// Range is a clock interval from Start to End. When Start > End the range wraps past midnight.
type Range struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewRange parses both bounds.
func NewRange(start, end string) (Range, error) {
	s, err := Parse(start)
	if err != nil {
		return Range{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// Wraps reports whether the range crosses midnight.
func (r Range) Wraps() bool {
	return r.Start > r.End
}

// Contains reports whether t lies in [Start, End].
func (r Range) Contains(t TimeOfDay) bool {
	if r.Wraps() {
		return t >= r.Start || t <= r.End
	}
	return t >= r.Start && t <= r.End
}

// ContainsHalfOpen reports whether t lies in [Start, End).
func (r Range) ContainsHalfOpen(t TimeOfDay) bool {
	if r.Wraps() {
		return t >= r.Start || t < r.End
	}
	return t >= r.Start && t < r.End
}

// Length is the forward span from Start to End in seconds.
func (r Range) Length() int {
	return Forward(r.Start, r.End)
}

// Position places t on a line whose origin is Start, so instants inside the
// range (and after it) order correctly even when the range wraps. Instants
// closer to the front of the range than to its back get a negative position.
func (r Range) Position(t TimeOfDay) int {
	off := Forward(r.Start, t)
	length := r.Length()
	if off <= length {
		return off
	}
	before := SecondsPerDay - off
	if before < off-length {
		return -before
	}
	return off
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}
