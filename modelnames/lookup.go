package modelnames

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/amp-labs/amp-validation/errors"
)

// Lookup resolves a path expression against model and returns the value found
// there. Struct properties match the field name or, failing that, the first
// name in a json or mapstructure tag. Index segments select slice and array
// elements by position and map entries by key; string, integer and bool map
// keys are converted from the segment text. String keys fall back to a
// case-insensitive match.
//
// The empty path returns model itself.
func Lookup(model any, name string) (any, error) {
	segments, err := Parse(name)
	if err != nil {
		return nil, err
	}

	current := reflect.ValueOf(model)

	for i, seg := range segments {
		current = indirect(current)
		if !current.IsValid() {
			return nil, fmt.Errorf("%w: %q is nil before %s",
				errors.ErrPathNotFound, name, Join(segments[:i+1]))
		}

		next, ok := step(current, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errors.ErrPathNotFound, Join(segments[:i+1]))
		}

		current = next
	}

	if !current.IsValid() {
		return nil, nil
	}

	return current.Interface(), nil
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

func step(v reflect.Value, seg Segment) (reflect.Value, bool) {
	switch v.Kind() { //nolint:exhaustive
	case reflect.Struct:
		if seg.Indexed {
			return reflect.Value{}, false
		}

		return structField(v, seg.Name)
	case reflect.Slice, reflect.Array:
		idx, ok := seg.Index()
		if !ok || idx >= v.Len() {
			return reflect.Value{}, false
		}

		return v.Index(idx), true
	case reflect.Map:
		return mapEntry(v, seg.Name)
	default:
		return reflect.Value{}, false
	}
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()

	if f, ok := t.FieldByName(name); ok && f.IsExported() && len(f.Index) == 1 {
		return v.Field(f.Index[0]), true
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		for _, tag := range []string{"json", "mapstructure"} {
			tagName, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if tagName != "" && tagName == name {
				return v.Field(i), true
			}
		}
	}

	return reflect.Value{}, false
}

func mapEntry(v reflect.Value, raw string) (reflect.Value, bool) {
	key, ok := convertKey(raw, v.Type().Key())
	if !ok {
		return reflect.Value{}, false
	}

	if entry := v.MapIndex(key); entry.IsValid() {
		return entry, true
	}

	if v.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}

	// Decoders match input keys to fields without regard to case, so "name"
	// in the input is what was bound to Name. The smallest matching key wins
	// when several differ only in case.
	var (
		found reflect.Value
		best  string
	)

	for _, k := range v.MapKeys() {
		name := k.String()
		if !strings.EqualFold(name, raw) {
			continue
		}

		if !found.IsValid() || name < best {
			found, best = v.MapIndex(k), name
		}
	}

	return found, found.IsValid()
}

func convertKey(raw string, t reflect.Type) (reflect.Value, bool) {
	key := reflect.New(t).Elem()

	switch t.Kind() { //nolint:exhaustive
	case reflect.String:
		key.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}

		key.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}

		key.SetUint(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, false
		}

		key.SetBool(b)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return reflect.Value{}, false
		}

		key.Set(reflect.ValueOf(raw))
	default:
		return reflect.Value{}, false
	}

	return key, true
}
