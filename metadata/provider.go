package metadata

import (
	"encoding"
	"reflect"
	"strings"
	"sync"
	"time"
)

const defaultRuleTag = "validate"

var (
	anyType             = reflect.TypeFor[any]()
	pairType            = reflect.TypeFor[KeyValuePair]()
	timeType            = reflect.TypeFor[time.Time]()
	sequenceType        = reflect.TypeFor[Sequence]()
	mappingType         = reflect.TypeFor[Mapping]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Provider builds and caches TypeMetadata. It is safe for concurrent use and
// is meant to be shared for the lifetime of the process.
type Provider struct {
	nameTag string
	ruleTag string
	cache   sync.Map // reflect.Type -> *TypeMetadata
}

// Option configures a Provider built with NewProvider.
type Option func(*Provider)

// WithNameTag makes property names come from the given struct tag (for
// example "json"). Fields without the tag keep their Go name; a tag value of
// "-" hides the field.
func WithNameTag(tag string) Option {
	return func(p *Provider) {
		p.nameTag = tag
	}
}

// WithRuleTag changes the struct tag holding validation rules. Defaults to
// "validate".
func WithRuleTag(tag string) Option {
	return func(p *Provider) {
		if tag != "" {
			p.ruleTag = tag
		}
	}
}

// NewProvider returns a provider with an empty cache. Rules are read from the
// "validate" tag unless WithRuleTag says otherwise.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{ruleTag: defaultRuleTag}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// For returns the metadata of T.
func For[T any](p *Provider) *TypeMetadata {
	return p.ForType(reflect.TypeFor[T]())
}

// ForValue returns the metadata of the runtime type of v. A nil v yields the
// metadata of the empty interface.
func (p *Provider) ForValue(v any) *TypeMetadata {
	if v == nil {
		return p.ForType(anyType)
	}

	return p.ForType(reflect.TypeOf(v))
}

// ForType returns the metadata of t, creating it on first use. Every call for
// the same type returns the same pointer.
func (p *Provider) ForType(t reflect.Type) *TypeMetadata {
	if t == nil {
		t = anyType
	}

	if md, ok := p.cache.Load(t); ok {
		return md.(*TypeMetadata) //nolint:forcetypeassert
	}

	md, _ := p.cache.LoadOrStore(t, &TypeMetadata{
		provider:  p,
		modelType: t,
		kind:      kindOf(t),
	})

	return md.(*TypeMetadata) //nolint:forcetypeassert
}

// pairMetadata builds the element metadata for a dictionary with the given
// key and value types.
func (p *Provider) pairMetadata(key, value reflect.Type) *TypeMetadata {
	return &TypeMetadata{
		provider:  p,
		modelType: pairType,
		kind:      KindComplex,
		pairKey:   key,
		pairValue: value,
	}
}

func (p *Provider) elementFor(m *TypeMetadata) *TypeMetadata {
	t := indirectType(m.modelType)

	switch m.kind {
	case KindCollection:
		if implements(t, sequenceType) {
			return p.ForType(anyType)
		}

		return p.ForType(t.Elem())
	case KindDictionary:
		if implements(t, mappingType) {
			return p.pairMetadata(anyType, anyType)
		}

		return p.pairMetadata(t.Key(), t.Elem())
	case KindSimple, KindComplex:
		return nil
	}

	return nil
}

func (p *Provider) propertiesFor(m *TypeMetadata) []*TypeMetadata {
	if m.kind != KindComplex {
		return nil
	}

	if m.pairKey != nil {
		return []*TypeMetadata{
			p.property(pairType, "Key", 0, m.pairKey, ""),
			p.property(pairType, "Value", 1, m.pairValue, ""),
		}
	}

	st := indirectType(m.modelType)
	props := make([]*TypeMetadata, 0, st.NumField())

	for i := range st.NumField() {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name

		if p.nameTag != "" {
			tagName, _, _ := strings.Cut(field.Tag.Get(p.nameTag), ",")
			if tagName == "-" {
				continue
			}

			if tagName != "" {
				name = tagName
			}
		}

		props = append(props, p.property(st, name, i, field.Type, field.Tag.Get(p.ruleTag)))
	}

	return props
}

func (p *Provider) property(container reflect.Type, name string, index int, t reflect.Type, rules string) *TypeMetadata {
	base := p.ForType(t)
	validateChildren := rules != "-"

	if !validateChildren {
		rules = ""
	}

	return &TypeMetadata{
		provider:         p,
		modelType:        t,
		kind:             base.kind,
		base:             base,
		container:        container,
		name:             name,
		fieldIndex:       index,
		rules:            rules,
		validateChildren: validateChildren,
	}
}

func kindOf(t reflect.Type) Kind {
	t = indirectType(t)

	switch {
	case implements(t, mappingType):
		return KindDictionary
	case implements(t, sequenceType):
		return KindCollection
	case t == timeType, implements(t, textUnmarshalerType):
		return KindSimple
	}

	switch t.Kind() { //nolint:exhaustive
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindSimple
		}

		return KindCollection
	case reflect.Array:
		return KindCollection
	case reflect.Map:
		return KindDictionary
	case reflect.Struct:
		return KindComplex
	default:
		return KindSimple
	}
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

// implements checks both the type and its pointer, so value-receiver and
// pointer-receiver implementations are both found.
func implements(t, iface reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return false
	}

	return t.Implements(iface) || reflect.PointerTo(t).Implements(iface)
}
