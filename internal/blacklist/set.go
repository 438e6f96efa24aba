package blacklist

import "slices"

// Set is an unordered, deduplicated collection of canonical names.
type Set map[string]struct{}

// NewSet returns a Set holding names. Duplicates collapse.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Add inserts name into the set.
func (s Set) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is a member.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in byte-wise ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Minus returns the members of s that are not in other.
func (s Set) Minus(other Set) Set {
	out := make(Set)
	for name := range s {
		if !other.Has(name) {
			out[name] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.Has(name) {
			return false
		}
	}
	return true
}
