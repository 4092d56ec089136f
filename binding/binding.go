// Package binding fills a model from loosely typed input (decoded JSON, form
// values, YAML documents) and validates it, recording conversion and
// validation problems in one modelstate.Dictionary.
package binding

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	amperrors "github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/logger"
	"github.com/amp-labs/amp-validation/metadata"
	"github.com/amp-labs/amp-validation/modelnames"
	"github.com/amp-labs/amp-validation/modelstate"
	"github.com/amp-labs/amp-validation/validate"
	"github.com/mitchellh/mapstructure"
)

const defaultTagName = "mapstructure"

// Binder decodes input into models and validates them. It is safe for
// concurrent use.
type Binder struct {
	validator   *validate.Validator
	tagName     string
	weaklyTyped bool
}

// Option configures a Binder built with New.
type Option func(*Binder)

// WithTagName sets the struct tag input keys are matched against. Use the
// same tag as the validator's name tag so that conversion and validation
// errors share keys.
func WithTagName(tag string) Option {
	return func(b *Binder) {
		b.tagName = tag
	}
}

// WithWeaklyTypedInput controls whether strings like "42" or "true" are
// converted to the field type. It is on by default, as form input is all strings.
func WithWeaklyTypedInput(enabled bool) Option {
	return func(b *Binder) {
		b.weaklyTyped = enabled
	}
}

// New returns a binder validating with v. A nil v uses a validator with
// default options.
func New(v *validate.Validator, opts ...Option) *Binder {
	if v == nil {
		v = validate.New()
	}

	b := &Binder{
		validator:   v,
		tagName:     defaultTagName,
		weaklyTyped: true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	if b.tagName == "" {
		b.tagName = defaultTagName
	}

	return b
}

// TryUpdateModel decodes input into target, which must be a non-nil pointer,
// and validates the result. Keys are reported under prefix. Every decoded key
// gets its raw input value recorded, except keys beneath a map entry: the
// validator names those by position, so only the map itself is recorded.
// Every value that could not be converted gets a model error. The returned error is reserved for a target that cannot
// be bound and for validation passes that could not complete; check the
// dictionary for invalid input.
func (b *Binder) TryUpdateModel(
	ctx context.Context, target any, prefix string, input map[string]any,
) (*modelstate.Dictionary, error) {
	value := reflect.ValueOf(target)
	if !value.IsValid() || value.Kind() != reflect.Pointer || value.IsNil() {
		return nil, fmt.Errorf("%w: binding target must be a non-nil pointer, got %T",
			amperrors.ErrWrongType, target)
	}

	state := modelstate.New(modelstate.WithMaxErrors(b.validator.Options().MaxErrors))

	var meta mapstructure.Metadata

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: b.weaklyTyped,
		Metadata:         &meta,
		Result:           target,
		TagName:          b.tagName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", amperrors.ErrWrongType, err)
	}

	if err := decoder.Decode(input); err != nil {
		b.recordDecodeErrors(state, prefix, err)
	}

	for _, key := range meta.Keys {
		if b.isMapKeyed(value, key) {
			continue
		}

		raw, err := modelnames.Lookup(input, key)
		if err != nil {
			continue
		}

		state.SetModelValue(modelnames.CreatePropertyModelName(prefix, key), raw, attempted(raw))
	}

	if len(meta.Unused) > 0 {
		logger.Get(ctx).Debug("Input keys did not match the model",
			"type", fmt.Sprintf("%T", target), "keys", meta.Unused)
	}

	if _, err := b.validator.ValidateInto(ctx, state, prefix, target); err != nil {
		return state, err
	}

	return state, nil
}

// isMapKeyed reports whether key, as produced by the decoder, passes through a
// map or Mapping of target. Keys that cannot be parsed are treated the same,
// as the validator never produces them.
func (b *Binder) isMapKeyed(target reflect.Value, key string) bool {
	segments, err := modelnames.Parse(key)
	if err != nil {
		return true
	}

	current := target

	for _, seg := range segments {
		for current.Kind() == reflect.Pointer || current.Kind() == reflect.Interface {
			if current.IsNil() {
				return false
			}

			current = current.Elem()
		}

		if current.Kind() == reflect.Map || isMapping(current.Type()) {
			return true
		}

		switch current.Kind() { //nolint:exhaustive
		case reflect.Struct:
			field, ok := b.field(current, seg)
			if !ok {
				return false
			}

			current = field
		case reflect.Slice, reflect.Array:
			idx, ok := seg.Index()
			if !ok || idx >= current.Len() {
				return false
			}

			current = current.Index(idx)
		default:
			return false
		}
	}

	return false
}

// field finds the struct field the decoder bound seg to: the tag name when
// set, otherwise the field name, compared without regard to case.
func (b *Binder) field(v reflect.Value, seg modelnames.Segment) (reflect.Value, bool) {
	if seg.Indexed {
		return reflect.Value{}, false
	}

	t := v.Type()

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(f.Tag.Get(b.tagName), ",")
		if name == "" {
			name = f.Name
		}

		if strings.EqualFold(name, seg.Name) {
			return v.Field(i), true
		}
	}

	// Fields promoted from embedded structs.
	field := v.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, seg.Name) })

	return field, field.IsValid()
}

func isMapping(t reflect.Type) bool {
	mapping := reflect.TypeFor[metadata.Mapping]()

	return t.Implements(mapping) || reflect.PointerTo(t).Implements(mapping)
}

func (b *Binder) recordDecodeErrors(state *modelstate.Dictionary, prefix string, err error) {
	var decodeErr *mapstructure.Error
	if !errors.As(err, &decodeErr) {
		state.TryAddModelError(prefix, err)

		return
	}

	for _, msg := range decodeErr.Errors {
		key := prefix
		if name, ok := quotedName(msg); ok {
			key = modelnames.CreatePropertyModelName(prefix, name)
		}

		if !state.AddModelError(key, msg) {
			return
		}
	}
}

// quotedName extracts the field path mapstructure puts between the first pair
// of single quotes, as in "'Lines[0].Qty' expected type 'int'".
func quotedName(msg string) (string, bool) {
	_, rest, ok := strings.Cut(msg, "'")
	if !ok {
		return "", false
	}

	name, _, ok := strings.Cut(rest, "'")
	if !ok || name == "" {
		return "", false
	}

	return name, true
}

func attempted(raw any) string {
	switch raw.(type) {
	case nil, map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(raw)
	}
}
