package gate

import "strings"

// shadow is the immutable environment snapshot captured at Initialize.
// Lookups while gating is enabled are answered from here so they never race
// with mutation of the live environment.
type shadow struct {
	pairs []string
}

func newShadow(environ []string) *shadow {
	pairs := make([]string, len(environ))
	copy(pairs, environ)
	return &shadow{pairs: pairs}
}

// lookup scans for an exact name match on the portion preceding the
// separator. Entries without a separator never match.
func (s *shadow) lookup(name string) (string, bool) {
	for _, pair := range s.pairs {
		key, value, ok := strings.Cut(pair, "=")
		if ok && key == name {
			return value, true
		}
	}
	return "", false
}

func (s *shadow) len() int {
	return len(s.pairs)
}
