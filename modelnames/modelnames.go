// Package modelnames builds and reads the path expressions used as keys for
// validation results, such as "Orders[2].Lines[0].Quantity".
//
// Two segment forms exist: property segments joined with a dot and index
// segments in square brackets. An empty prefix denotes the root model.
package modelnames

import (
	"strconv"
	"strings"
)

// CreateIndexModelName appends a positional index to prefix:
// ("items", 3) gives "items[3]" and ("", 3) gives "[3]".
func CreateIndexModelName(prefix string, index int) string {
	return CreateKeyModelName(prefix, strconv.Itoa(index))
}

// CreateKeyModelName appends an arbitrary bracketed key to prefix:
// ("scores", "alice") gives "scores[alice]".
func CreateKeyModelName(prefix, key string) string {
	var sb strings.Builder

	sb.Grow(len(prefix) + len(key) + 2)
	sb.WriteString(prefix)
	sb.WriteByte('[')
	sb.WriteString(key)
	sb.WriteByte(']')

	return sb.String()
}

// CreatePropertyModelName joins a property name onto prefix with a dot.
// Either side may be empty, and a name that is itself an index expression
// ("[0]") is appended without a dot.
func CreatePropertyModelName(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	case strings.HasPrefix(name, "["):
		return prefix + name
	default:
		return prefix + "." + name
	}
}

// HasPrefix reports whether key is prefix itself or lies underneath it.
// "a.b" and "a[0]" are under "a"; "ab" is not. Every key is under "".
func HasPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}

	if len(key) < len(prefix) || !strings.EqualFold(key[:len(prefix)], prefix) {
		return false
	}

	if len(key) == len(prefix) {
		return true
	}

	switch key[len(prefix)] {
	case '.', '[':
		return true
	default:
		return false
	}
}
