// Package utils holds small generic helpers shared across the fuser packages.
package utils

// Set implements a set of elements of any comparable type.
type Set[T comparable] map[T]struct{}

// MakeSet returns an empty Set with the given capacity hint.
func MakeSet[T comparable](capacity int) Set[T] {
	return make(Set[T], capacity)
}

// SetWith returns a Set with the given elements inserted.
func SetWith[T comparable](elements ...T) Set[T] {
	s := MakeSet[T](len(elements))
	s.Insert(elements...)
	return s
}

// Insert the elements into the set.
func (s Set[T]) Insert(elements ...T) {
	for _, e := range elements {
		s[e] = struct{}{}
	}
}

// Has returns whether the element is in the set.
func (s Set[T]) Has(element T) bool {
	_, ok := s[element]
	return ok
}

// Sub returns a new set with the elements of s that are not in other.
func (s Set[T]) Sub(other Set[T]) Set[T] {
	res := MakeSet[T](len(s))
	for e := range s {
		if !other.Has(e) {
			res.Insert(e)
		}
	}
	return res
}

// Equal returns whether the two sets hold the same elements.
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for e := range s {
		if !other.Has(e) {
			return false
		}
	}
	return true
}

// NormalizeIdentifier converts the name of an identifier (tensor name or axis
// symbol) to a valid one: only letters, digits, and underscores are allowed.
//
// Invalid characters are replaced with underscores.
// If the name starts with a digit, it is prefixed with an underscore.
func NormalizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	result := make([]rune, 0, len(name)+1)
	if name[0] >= '0' && name[0] <= '9' {
		result = append(result, '_')
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
