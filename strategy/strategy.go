// Package strategy decides which children of a model the validation engine
// visits, and what path key each child is reported under.
//
// Every strategy implements the same three-argument contract: given the
// metadata of a container, the path prefix of the container and the container
// itself, produce a lazy sequence of entries. The engine is written once
// against that contract and recurses into each entry with the entry's own
// metadata.
//
// Strategies hold no state. The package-level values are meant to be shared
// by any number of concurrent validation passes.
package strategy

import (
	"iter"

	"github.com/amp-labs/amp-validation/metadata"
)

// KeyValuePair is the model of each entry produced for a dictionary.
type KeyValuePair = metadata.KeyValuePair

// Entry is one child to be validated: where it lives, what it is, and its value.
type Entry struct {
	Key      string
	Metadata *metadata.TypeMetadata
	Model    any
}

// Strategy enumerates the children of a model.
//
// Children checks up front that model has a shape the strategy can enumerate
// and returns an error if not; the returned sequence itself cannot fail. The
// sequence is lazy and may be abandoned at any point without cleanup.
type Strategy interface {
	Children(md *metadata.TypeMetadata, prefix string, model any) (iter.Seq[Entry], error)
}

// Func adapts an ordinary function to the Strategy interface.
type Func func(md *metadata.TypeMetadata, prefix string, model any) (iter.Seq[Entry], error)

// Children calls f.
func (f Func) Children(md *metadata.TypeMetadata, prefix string, model any) (iter.Seq[Entry], error) {
	return f(md, prefix, model)
}

var _ Strategy = Func(nil)

// For returns the default strategy for the kind recorded in md: Collection
// for collections and dictionaries, ComplexObject for complex types, and nil
// for simple types, which have no children.
func For(md *metadata.TypeMetadata) Strategy { //nolint:ireturn
	if md == nil {
		return nil
	}

	switch md.Kind() {
	case metadata.KindCollection, metadata.KindDictionary:
		return Collection
	case metadata.KindComplex:
		return ComplexObject
	case metadata.KindSimple:
		return nil
	}

	return nil
}

func empty(func(Entry) bool) {}
