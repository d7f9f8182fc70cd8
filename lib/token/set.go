package token

import "strings"

// Set is a set of token kinds, used as a synchronization set during error
// recovery.
type Set [2]uint64

// NewSet returns a set holding kinds.
func NewSet(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

func (s Set) With(k Kind) Set {
	s[k/64] |= 1 << (uint(k) % 64)
	return s
}

func (s Set) Has(k Kind) bool {
	if k < 0 || k >= numKinds {
		return false
	}
	return s[k/64]&(1<<(uint(k)%64)) != 0
}

func (s Set) String() string {
	var names []string
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			names = append(names, k.String())
		}
	}
	return "{" + strings.Join(names, " ") + "}"
}
