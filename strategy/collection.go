package strategy

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/metadata"
	"github.com/amp-labs/amp-validation/modelnames"
)

// Collection is the default strategy for collections and dictionaries.
//
// For a sequence, entry i has key prefix[i], the element metadata of md, and
// the i-th element as its model. For a dictionary, entry i has the same
// positional key prefix[i] and a KeyValuePair holding the i-th pair in the
// map's own enumeration order. The map keys never appear in the entry keys.
// Go maps enumerate in random order, so callers must not rely on which pair
// lands at which index; Mapping implementations control their own order.
var Collection Strategy = collectionStrategy{} //nolint:gochecknoglobals

type collectionStrategy struct{}

func (collectionStrategy) Children(md *metadata.TypeMetadata, prefix string, model any) (iter.Seq[Entry], error) {
	element := md.ElementMetadata()

	switch m := model.(type) {
	case nil:
		return empty, nil
	case metadata.Mapping:
		return indexed(prefix, element, pairsOf(m)), nil
	case metadata.Sequence:
		return indexed(prefix, element, m.Items()), nil
	}

	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return empty, nil
		}

		value = value.Elem()
	}

	switch value.Kind() { //nolint:exhaustive
	case reflect.Slice, reflect.Array:
		return indexed(prefix, element, sliceItems(value)), nil
	case reflect.Map:
		return indexed(prefix, element, mapItems(value)), nil
	}

	// A pointer-receiver Sequence or Mapping stored by value.
	var addr reflect.Value
	if value.CanAddr() {
		addr = value.Addr()
	} else {
		addr = reflect.New(value.Type())
		addr.Elem().Set(value)
	}

	switch m := addr.Interface().(type) {
	case metadata.Mapping:
		return indexed(prefix, element, pairsOf(m)), nil
	case metadata.Sequence:
		return indexed(prefix, element, m.Items()), nil
	}

	return nil, fmt.Errorf("%w: %s at %q (%T)", errors.ErrNotEnumerable, md, prefix, model)
}

// indexed numbers the items of seq with positional keys under prefix.
func indexed(prefix string, element *metadata.TypeMetadata, seq iter.Seq[any]) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		i := 0

		for item := range seq {
			entry := Entry{
				Key:      modelnames.CreateIndexModelName(prefix, i),
				Metadata: element,
				Model:    item,
			}

			if !yield(entry) {
				return
			}

			i++
		}
	}
}

func sliceItems(value reflect.Value) iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := range value.Len() {
			if !yield(value.Index(i).Interface()) {
				return
			}
		}
	}
}

func mapItems(value reflect.Value) iter.Seq[any] {
	return func(yield func(any) bool) {
		it := value.MapRange()

		for it.Next() {
			if !yield(KeyValuePair{Key: it.Key().Interface(), Value: it.Value().Interface()}) {
				return
			}
		}
	}
}

func pairsOf(m metadata.Mapping) iter.Seq[any] {
	return func(yield func(any) bool) {
		for k, v := range m.Pairs() {
			if !yield(KeyValuePair{Key: k, Value: v}) {
				return
			}
		}
	}
}
