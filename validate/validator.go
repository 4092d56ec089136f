package validate

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-validation/contexts"
	amperrors "github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/logger"
	"github.com/amp-labs/amp-validation/metadata"
	"github.com/amp-labs/amp-validation/modelnames"
	"github.com/amp-labs/amp-validation/modelstate"
	"github.com/amp-labs/amp-validation/strategy"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Validator runs validation passes. It is immutable after construction and
// safe for concurrent use; each pass owns its own state.
type Validator struct {
	opts       Options
	provider   *metadata.Provider
	rules      *validator.Validate
	strategies map[reflect.Type]strategy.Strategy
}

// New returns a validator configured from DefaultOptions and opts. Invalid
// option values are replaced by their defaults.
func New(opts ...Option) *Validator {
	options := DefaultOptions()

	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	return NewWithOptions(options)
}

// NewWithOptions returns a validator for opts. Invalid option values are
// replaced by their defaults; use Options.Check to reject them instead.
func NewWithOptions(opts Options) *Validator {
	defaults := DefaultOptions()

	if opts.MaxDepth < 1 {
		opts.MaxDepth = defaults.MaxDepth
	}

	if opts.MaxErrors < 1 {
		opts.MaxErrors = defaults.MaxErrors
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = defaults.Concurrency
	}

	if opts.RuleTag == "" {
		opts.RuleTag = defaults.RuleTag
	}

	providerOpts := []metadata.Option{metadata.WithRuleTag(opts.RuleTag)}
	if opts.NameTag != "" {
		providerOpts = append(providerOpts, metadata.WithNameTag(opts.NameTag))
	}

	strategies := make(map[reflect.Type]strategy.Strategy, len(opts.Strategies))
	for t, s := range opts.Strategies {
		strategies[t] = s
	}

	opts.Strategies = nil

	return &Validator{
		opts:       opts,
		provider:   metadata.NewProvider(providerOpts...),
		rules:      validator.New(validator.WithRequiredStructEnabled()),
		strategies: strategies,
	}
}

// Options returns the effective options.
func (v *Validator) Options() Options {
	return v.opts
}

// Provider is the metadata provider the validator reads model shapes from.
func (v *Validator) Provider() *metadata.Provider {
	return v.provider
}

// Validate runs a pass over model into a fresh dictionary. The returned error
// is reserved for passes that could not complete (cancelled context, depth
// exceeded, a value that cannot be walked); invalid input is reported through
// the dictionary.
func (v *Validator) Validate(ctx context.Context, model any) (*modelstate.Dictionary, error) {
	state := modelstate.New(modelstate.WithMaxErrors(v.opts.MaxErrors))

	if _, err := v.ValidateInto(ctx, state, "", model); err != nil {
		return state, err
	}

	return state, nil
}

// ValidateInto runs a pass over model, recording results in state under
// prefix. Entries already in state (e.g. from binding) are marked valid when
// nothing is wrong with them. It reports whether the subtree at prefix is
// valid.
func (v *Validator) ValidateInto(
	ctx context.Context, state *modelstate.Dictionary, prefix string, model any,
) (valid bool, err error) {
	ctx = logger.With(contexts.EnsureContext(ctx), "validation_pass", uuid.NewString())
	ctx, span := startSpan(ctx, prefix, model)

	start := time.Now()
	errorsBefore := state.ErrorCount()

	vis := &visitor{
		validator: v,
		ctx:       ctx,
		state:     state,
		log:       logger.Get(ctx),
		active:    make(map[identity]struct{}),
	}

	defer func() {
		recorded := max(state.ErrorCount()-errorsBefore, 0)
		hasError := err != nil || !valid

		observePass(fmt.Sprintf("%T", model), hasError,
			float64(time.Since(start).Microseconds())/1000.0, vis.nodes, recorded) //nolint:mnd
		endSpan(span, valid, recorded, err)

		vis.log.Debug("Validation pass finished",
			"prefix", prefix,
			"type", fmt.Sprintf("%T", model),
			"valid", valid,
			"nodes", vis.nodes,
			"errors", recorded,
			"duration", time.Since(start))
	}()

	valid, err = vis.visit(v.provider.ForValue(model), prefix, model, 0)
	if err != nil {
		return false, err
	}

	return valid && state.GetValidationState(prefix) != modelstate.Invalid, nil
}

// ValidatePath validates only the value found at path inside model. Keys are
// reported in model's key space, so the result of ValidatePath(ctx, order,
// "Lines[2]") has keys like "Lines[2].Qty".
func (v *Validator) ValidatePath(ctx context.Context, model any, path string) (*modelstate.Dictionary, error) {
	sub, err := modelnames.Lookup(model, path)
	if err != nil {
		return nil, err
	}

	state := modelstate.New(modelstate.WithMaxErrors(v.opts.MaxErrors))

	if _, err := v.ValidateInto(ctx, state, path, sub); err != nil {
		return state, err
	}

	return state, nil
}

// ValidateBatch validates independent models concurrently, at most
// Options.Concurrency at a time. The i-th dictionary belongs to the i-th
// model; it is nil when the pass never ran because ctx was cancelled. Pass
// failures are joined into the returned error.
func (v *Validator) ValidateBatch(ctx context.Context, models []any) ([]*modelstate.Dictionary, error) {
	ctx = contexts.EnsureContext(ctx)
	results := make([]*modelstate.Dictionary, len(models))

	if len(models) == 0 {
		return results, nil
	}

	pool := pond.NewPool(v.opts.Concurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	invalid := atomic.NewInt64(0)
	failed := atomic.NewInt64(0)
	tasks := make([]pond.Task, 0, len(models))

	for i, model := range models {
		tasks = append(tasks, pool.SubmitErr(func() error {
			state, err := v.Validate(ctx, model)
			results[i] = state

			if err != nil {
				failed.Inc()

				return fmt.Errorf("model %d: %w", i, err)
			}

			if !state.IsValid() {
				invalid.Inc()
			}

			return nil
		}))
	}

	var errs amperrors.Collection

	for _, task := range tasks {
		errs.Add(task.Wait())
	}

	logger.Get(ctx).Debug("Validated batch",
		"models", len(models),
		"invalid", invalid.Load(),
		"failed", failed.Load())

	return results, errs.GetError()
}

func (v *Validator) strategyFor(md *metadata.TypeMetadata) strategy.Strategy { //nolint:ireturn
	t := md.ModelType()

	if s, ok := v.strategies[t]; ok {
		return s
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()

		if s, ok := v.strategies[t]; ok {
			return s
		}
	}

	return strategy.For(md)
}
