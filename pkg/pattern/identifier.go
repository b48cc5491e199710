// Package pattern holds the small matching primitives shared by the template
// descriptor and the render engine: identifier validation, glob matching and
// template marker detection.
package pattern

import (
	"regexp"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

// IsIdentifier reports whether value is a single identifier segment.
func IsIdentifier(value string) bool {
	return identifierRegex.MatchString(value)
}

// IsDottedIdentifier reports whether every dot separated segment of value is
// an identifier. Empty values are rejected.
func IsDottedIdentifier(value string) bool {
	if value == "" {
		return false
	}

	for _, segment := range strings.Split(value, ".") {
		if !IsIdentifier(segment) {
			return false
		}
	}

	return true
}

// ContainsTemplate reports whether value holds an opening "{{" that comes
// before a closing "}}".
func ContainsTemplate(value string) bool {
	open := strings.Index(value, "{{")
	if open < 0 {
		return false
	}

	return strings.LastIndex(value, "}}") > open
}
