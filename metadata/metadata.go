// Package metadata describes the shape of model types for validation.
//
// A TypeMetadata tells the validation engine whether a type is a simple value,
// a complex object with properties, a collection, or a dictionary, and gives it
// the metadata of the children it will find there. Metadata is immutable once
// built and is shared: a Provider creates exactly one instance per type.
//
// Dictionary metadata deserves a note. The element of a dictionary is the
// key/value pair as a whole, described by the KeyValuePair type, whose Key and
// Value properties carry the metadata of the map's key and value types.
package metadata

import (
	"fmt"
	"iter"
	"reflect"
	"sync"
)

// Kind is the tag that decides how a model of a given type is traversed.
type Kind int

const (
	// KindSimple values have no children (numbers, strings, times, interfaces
	// before their runtime type is known).
	KindSimple Kind = iota
	// KindComplex values are structs visited property by property.
	KindComplex
	// KindCollection values are slices, arrays and Sequence implementations.
	KindCollection
	// KindDictionary values are maps and Mapping implementations.
	KindDictionary
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindComplex:
		return "complex"
	case KindCollection:
		return "collection"
	case KindDictionary:
		return "dictionary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sequence is implemented by custom collection types that want to be
// traversed like a slice.
type Sequence interface {
	Items() iter.Seq[any]
}

// Mapping is implemented by custom dictionary types, typically ones with a
// stable enumeration order.
type Mapping interface {
	Pairs() iter.Seq2[any, any]
}

// KeyValuePair is the model handed out for each element of a dictionary.
type KeyValuePair struct {
	Key   any
	Value any
}

// TypeMetadata describes a type, or a property of a complex type.
//
// Property metadata shares kind, element and property information with the
// metadata of its declared type and adds the property name, its container,
// and its rule tag.
type TypeMetadata struct {
	provider  *Provider
	modelType reflect.Type
	kind      Kind

	// set for property metadata only
	base             *TypeMetadata
	container        reflect.Type
	name             string
	fieldIndex       int
	rules            string
	validateChildren bool

	elementOnce sync.Once
	element     *TypeMetadata
	// pairKey and pairValue override the Key/Value property types of a
	// synthesized dictionary pair.
	pairKey   reflect.Type
	pairValue reflect.Type

	propertiesOnce sync.Once
	properties     []*TypeMetadata
}

// ModelType is the declared type, pointers included.
func (m *TypeMetadata) ModelType() reflect.Type { return m.modelType }

// Kind is the traversal category of the type.
func (m *TypeMetadata) Kind() Kind { return m.kind }

// IsComplex reports whether the type is a struct with properties.
func (m *TypeMetadata) IsComplex() bool { return m.kind == KindComplex }

// IsCollection reports whether the type is enumerable. Dictionaries are
// collections too, just like in most collection libraries.
func (m *TypeMetadata) IsCollection() bool {
	return m.kind == KindCollection || m.kind == KindDictionary
}

// IsDictionary reports whether the type is a map or a Mapping.
func (m *TypeMetadata) IsDictionary() bool { return m.kind == KindDictionary }

// IsProperty reports whether this metadata describes a struct field.
func (m *TypeMetadata) IsProperty() bool { return m.container != nil }

// Name is the property name, or "" for type metadata.
func (m *TypeMetadata) Name() string { return m.name }

// ContainerType is the struct type declaring the property, or nil.
func (m *TypeMetadata) ContainerType() reflect.Type { return m.container }

// FieldIndex is the index of the property in its container struct.
func (m *TypeMetadata) FieldIndex() int { return m.fieldIndex }

// Rules is the raw rule tag of the property ("" when absent).
func (m *TypeMetadata) Rules() string { return m.rules }

// ValidateChildren is false for properties explicitly excluded from
// validation with a "-" rule tag.
func (m *TypeMetadata) ValidateChildren() bool {
	if m.IsProperty() {
		return m.validateChildren
	}

	return true
}

// ElementMetadata returns the metadata of the elements of a collection. For a
// dictionary it is the metadata of the KeyValuePair element. It is nil for
// simple and complex kinds.
func (m *TypeMetadata) ElementMetadata() *TypeMetadata {
	if m.base != nil {
		return m.base.ElementMetadata()
	}

	m.elementOnce.Do(func() {
		m.element = m.provider.elementFor(m)
	})

	return m.element
}

// Properties returns the metadata of the exported fields of a complex type,
// in declaration order. It is nil for other kinds.
func (m *TypeMetadata) Properties() []*TypeMetadata {
	if m.base != nil {
		return m.base.Properties()
	}

	m.propertiesOnce.Do(func() {
		m.properties = m.provider.propertiesFor(m)
	})

	return m.properties
}

// Property finds a property by exact name.
func (m *TypeMetadata) Property(name string) (*TypeMetadata, bool) {
	for _, p := range m.Properties() {
		if p.name == name {
			return p, true
		}
	}

	return nil, false
}

// String describes the metadata for logs and test failures.
func (m *TypeMetadata) String() string {
	if m.IsProperty() {
		return fmt.Sprintf("%s.%s (%s %s)", m.container, m.name, m.kind, m.modelType)
	}

	return fmt.Sprintf("%s (%s)", m.modelType, m.kind)
}
