package sqlcheck

import (
	"encoding/json"
	"sort"
	"strings"
)

// IdentifierSet is a deduplicated set of bare (unqualified) identifiers.
type IdentifierSet map[string]struct{}

// NewIdentifierSet creates a set holding the given names
func NewIdentifierSet(names ...string) IdentifierSet {
	s := make(IdentifierSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts a name, ignoring empty strings
func (s IdentifierSet) Add(name string) {
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Remove deletes a name from the set
func (s IdentifierSet) Remove(name string) {
	delete(s, name)
}

// Has reports whether name is in the set
func (s IdentifierSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names
func (s IdentifierSet) Len() int {
	return len(s)
}

// Sorted returns the names in lexical order
func (s IdentifierSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy
func (s IdentifierSet) Clone() IdentifierSet {
	out := make(IdentifierSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Union adds every name of other to s
func (s IdentifierSet) Union(other IdentifierSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Equal reports whether both sets hold exactly the same names
func (s IdentifierSet) Equal(other IdentifierSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// String renders the set as a sorted, comma separated list
func (s IdentifierSet) String() string {
	return strings.Join(s.Sorted(), ", ")
}

// MarshalJSON encodes the set as a sorted array of names
func (s IdentifierSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of names
func (s *IdentifierSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewIdentifierSet(names...)
	return nil
}
