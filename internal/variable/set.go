package variable

import (
	"fmt"
	"slices"
	"strings"
)

// DuplicateTokenError reports tokens produced by more than one source.
type DuplicateTokenError struct {
	Tokens []Token
}

func (e *DuplicateTokenError) Error() string {
	names := make([]string, 0, len(e.Tokens))
	for _, t := range e.Tokens {
		names = append(names, string(t))
	}
	return fmt.Sprintf("duplicate variable tokens: %s", strings.Join(names, ", "))
}

// Set is an unordered collection of tokens.
type Set map[Token]struct{}

// NewSet builds a set from tokens, failing with a DuplicateTokenError if any
// token repeats.
func NewSet(tokens ...Token) (Set, error) {
	s := make(Set, len(tokens))
	var dups []Token
	for _, t := range tokens {
		if s.Has(t) {
			dups = append(dups, t)
			continue
		}
		s[t] = struct{}{}
	}
	if len(dups) > 0 {
		slices.Sort(dups)
		return nil, &DuplicateTokenError{Tokens: dups}
	}
	return s, nil
}

// Has reports whether t is in the set.
func (s Set) Has(t Token) bool {
	_, ok := s[t]
	return ok
}

// Add inserts t and reports whether it was absent.
func (s Set) Add(t Token) bool {
	if s.Has(t) {
		return false
	}
	s[t] = struct{}{}
	return true
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// Sorted returns the tokens in lexical order.
func (s Set) Sorted() []Token {
	out := make([]Token, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Strings returns the sorted tokens as strings.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for _, t := range s.Sorted() {
		out = append(out, string(t))
	}
	return out
}

// Merge returns the union of a and b. The sets must be disjoint; any overlap
// is reported as a DuplicateTokenError rather than silently collapsed.
func Merge(a, b Set) (Set, error) {
	var dups []Token
	for t := range b {
		if a.Has(t) {
			dups = append(dups, t)
		}
	}
	if len(dups) > 0 {
		slices.Sort(dups)
		return nil, &DuplicateTokenError{Tokens: dups}
	}

	out := make(Set, len(a)+len(b))
	for t := range a {
		out[t] = struct{}{}
	}
	for t := range b {
		out[t] = struct{}{}
	}
	return out, nil
}

// MergeAll folds Merge over sets in order.
func MergeAll(sets ...Set) (Set, error) {
	out := Set{}
	for _, s := range sets {
		merged, err := Merge(out, s)
		if err != nil {
			return nil, err
		}
		out = merged
	}
	return out, nil
}
