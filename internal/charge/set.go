package charge

// Set is an ordered collection of charges. Order matters for display and
// serialization only.
type Set []*Charge

func (s Set) Index(c *Charge) int {
	for i, x := range s {
		if x == c {
			return i
		}
	}
	return -1
}

// Without returns a new set with c removed and reports whether c was found.
func (s Set) Without(c *Charge) (Set, bool) {
	i := s.Index(c)
	if i < 0 {
		return s, false
	}
	out := make(Set, 0, len(s)-1)
	out = append(out, s[:i]...)
	out = append(out, s[i+1:]...)
	return out, true
}

func (s Set) Movables() Set {
	out := make(Set, 0, len(s))
	for _, c := range s {
		if c.IsMovable() {
			out = append(out, c)
		}
	}
	return out
}

// Clone deep-copies every charge.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for i, c := range s {
		out[i] = c.Clone()
	}
	return out
}

func (s Set) Reset() {
	for _, c := range s {
		c.Reset()
	}
}

func (s Set) ResetVelocities() {
	for _, c := range s {
		c.ResetVelocity()
	}
}
