package strategy

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/metadata"
	"github.com/amp-labs/amp-validation/modelnames"
)

// ComplexObject visits a struct property by property, in declaration order.
// Entry keys are prefix.Name (or just Name at the root) and property values
// are read only when the entry is reached.
var ComplexObject Strategy = complexObjectStrategy{} //nolint:gochecknoglobals

type complexObjectStrategy struct{}

func (complexObjectStrategy) Children(md *metadata.TypeMetadata, prefix string, model any) (iter.Seq[Entry], error) {
	if model == nil {
		return empty, nil
	}

	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return empty, nil
		}

		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s at %q expects a struct, got %T",
			errors.ErrUnsupportedModel, md, prefix, model)
	}

	properties := md.Properties()

	return func(yield func(Entry) bool) {
		for _, prop := range properties {
			entry := Entry{
				Key:      modelnames.CreatePropertyModelName(prefix, prop.Name()),
				Metadata: prop,
				Model:    value.Field(prop.FieldIndex()).Interface(),
			}

			if !yield(entry) {
				return
			}
		}
	}, nil
}
