// Package topic provides helpers for hierarchical event names.
//
// Event names use dot notation ("user.created", "app.start"). The final
// segment of a hierarchical name doubles as a method hint during dispatch,
// and two wildcard forms exist by dispatch convention: the global "*" and
// the group suffix "prefix.*". Matching is positional, not a pattern
// engine - the dispatcher consults fixed queue names derived from the
// triggered event.
package topic

import "strings"

const (
	// Separator splits a hierarchical event name into segments.
	Separator = "."

	// Wildcard is the global queue name that receives every event.
	Wildcard = "*"

	// cutset removed from both ends of a raw event name.
	cutset = ". "
)

// Trim removes leading and trailing dots and spaces from a raw event name.
// Registration and dispatch both operate on trimmed names.
func Trim(name string) string {
	return strings.Trim(name, cutset)
}

// Split divides a hierarchical name at its last separator.
// It returns the prefix, the final segment, and true for names that
// contain a separator; ok is false for flat names.
//
// Example: Split("app.server.start") -> "app.server", "start", true
func Split(name string) (prefix, method string, ok bool) {
	idx := strings.LastIndex(name, Separator)
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// Base returns the final segment of a name, or the name itself when flat.
func Base(name string) string {
	if _, method, ok := Split(name); ok {
		return method
	}
	return name
}

// Group returns the group-wildcard queue name for a prefix.
//
// Example: Group("app") -> "app.*"
func Group(prefix string) string {
	return prefix + Separator + Wildcard
}

// IsFlat reports whether a name contains no separator.
func IsFlat(name string) bool {
	return !strings.Contains(name, Separator)
}

// IsWildcard reports whether the name is the global wildcard or ends with
// the group-wildcard suffix.
func IsWildcard(name string) bool {
	return name == Wildcard || strings.HasSuffix(name, Separator+Wildcard)
}

// IsValid reports whether a trimmed name is usable for registration or
// dispatch: non-empty, with no empty segments.
func IsValid(name string) bool {
	if name == "" {
		return false
	}
	for _, seg := range strings.Split(name, Separator) {
		if seg == "" {
			return false
		}
	}
	return true
}
