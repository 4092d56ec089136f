package validate

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"

	amperrors "github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/strategy"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxDepth is how many levels below the root a pass may descend.
	DefaultMaxDepth = 32
	// DefaultMaxErrors is the error cap of each dictionary a pass creates.
	DefaultMaxErrors = 200
)

// Options configures a Validator. The zero value is not usable; start from
// DefaultOptions, ParseOptions or LoadOptions.
type Options struct {
	// MaxDepth bounds how deep a pass may recurse below its root. Exceeding it
	// aborts the pass with errors.ErrMaxDepthExceeded.
	MaxDepth int `yaml:"maxDepth"`

	// MaxErrors is the error cap of the dictionaries created by Validate.
	MaxErrors int `yaml:"maxErrors"`

	// ValidateComplexTypesIfChildValidationFails runs a struct's own Validate
	// method even when one of its properties failed.
	ValidateComplexTypesIfChildValidationFails bool `yaml:"validateComplexTypesIfChildValidationFails"`

	// NameTag is the struct tag property names are read from (e.g. "json").
	// Empty means Go field names.
	NameTag string `yaml:"nameTag"`

	// RuleTag is the struct tag holding validator rules. Defaults to "validate".
	RuleTag string `yaml:"ruleTag"`

	// Concurrency bounds the number of passes ValidateBatch runs at once.
	Concurrency int `yaml:"concurrency"`

	// Strategies overrides the traversal strategy for specific model types.
	Strategies map[reflect.Type]strategy.Strategy `yaml:"-"`
}

// Option mutates Options; see New.
type Option func(*Options)

// DefaultOptions returns the options New starts from. Concurrency defaults
// to GOMAXPROCS.
func DefaultOptions() Options {
	return Options{
		MaxDepth:    DefaultMaxDepth,
		MaxErrors:   DefaultMaxErrors,
		RuleTag:     "validate",
		Concurrency: runtime.GOMAXPROCS(0),
	}
}

// WithMaxDepth sets Options.MaxDepth. Values below one fall back to
// DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

// WithMaxErrors sets Options.MaxErrors. Values below one fall back to
// DefaultMaxErrors.
func WithMaxErrors(n int) Option {
	return func(o *Options) {
		o.MaxErrors = n
	}
}

// WithValidateComplexTypesIfChildValidationFails makes a struct's own Validate
// run even after one of its properties failed.
func WithValidateComplexTypesIfChildValidationFails(enabled bool) Option {
	return func(o *Options) {
		o.ValidateComplexTypesIfChildValidationFails = enabled
	}
}

// WithNameTag reads property names from tag, so keys match the wire format:
//
//	validate.New(validate.WithNameTag("json"))
func WithNameTag(tag string) Option {
	return func(o *Options) {
		o.NameTag = tag
	}
}

// WithRuleTag sets the struct tag validator rules are read from.
func WithRuleTag(tag string) Option {
	return func(o *Options) {
		o.RuleTag = tag
	}
}

// WithConcurrency bounds how many models ValidateBatch validates at once.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// WithStrategy makes the validator traverse models of type t with s instead of
// the strategy chosen from t's metadata. A nil strategy turns traversal of t
// off: only its rules and its own Validate method run.
func WithStrategy(t reflect.Type, s strategy.Strategy) Option {
	return func(o *Options) {
		if o.Strategies == nil {
			o.Strategies = make(map[reflect.Type]strategy.Strategy)
		}

		o.Strategies[t] = s
	}
}

// WithStrategyFor is WithStrategy for the type T.
func WithStrategyFor[T any](s strategy.Strategy) Option {
	return WithStrategy(reflect.TypeFor[T](), s)
}

// Check reports options that cannot produce a working validator.
func (o Options) Check() error {
	switch {
	case o.MaxDepth < 1:
		return fmt.Errorf("%w: maxDepth must be positive, got %d", amperrors.ErrInvalidOptions, o.MaxDepth)
	case o.MaxErrors < 1:
		return fmt.Errorf("%w: maxErrors must be positive, got %d", amperrors.ErrInvalidOptions, o.MaxErrors)
	case o.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be positive, got %d", amperrors.ErrInvalidOptions, o.Concurrency)
	default:
		return nil
	}
}

// ParseOptions reads YAML options on top of DefaultOptions. Unknown keys are
// rejected. An empty document yields the defaults.
//
//	maxDepth: 16
//	maxErrors: 50
//	nameTag: json
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&opts); err != nil && err != io.EOF { //nolint:errorlint
		return Options{}, fmt.Errorf("parsing validation options: %w", err)
	}

	if err := opts.Check(); err != nil {
		return Options{}, err
	}

	return opts, nil
}

// LoadOptions reads a YAML options file; see ParseOptions.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return Options{}, fmt.Errorf("reading validation options: %w", err)
	}

	return ParseOptions(data)
}
