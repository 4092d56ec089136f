package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	amperrors "github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/logger"
	"github.com/amp-labs/amp-validation/metadata"
	"github.com/amp-labs/amp-validation/modelnames"
	"github.com/amp-labs/amp-validation/modelstate"
	"github.com/go-playground/validator/v10"
)

// identity identifies a reference value (pointer, map or slice) on the
// current path, for cycle detection.
type identity struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// visitor holds the state of one pass.
type visitor struct {
	validator *Validator
	ctx       context.Context //nolint:containedctx
	state     *modelstate.Dictionary
	log       *slog.Logger
	active    map[identity]struct{}
	nodes     int
}

func (vis *visitor) visit(md *metadata.TypeMetadata, key string, model any, depth int) (bool, error) {
	if err := vis.ctx.Err(); err != nil {
		return false, err
	}

	if depth > vis.validator.opts.MaxDepth {
		vis.log.Warn("Validation exceeded maximum depth",
			"key", key, "depth", depth, "maxDepth", vis.validator.opts.MaxDepth)

		return false, fmt.Errorf("%w: %q is %d levels deep (max %d)",
			amperrors.ErrMaxDepthExceeded, key, depth, vis.validator.opts.MaxDepth)
	}

	if vis.state.HasReachedMaxErrors() {
		return false, nil
	}

	vis.nodes++

	valid := vis.applyRules(md, key, model)

	value, ok := deref(model)
	if !ok {
		vis.markValid(key, valid)

		return valid, nil
	}

	if !md.ValidateChildren() {
		vis.state.MarkFieldSkipped(key)

		return valid, nil
	}

	// Interface-typed properties and elements are walked as what they hold.
	if md.ModelType() != reflect.TypeOf(model) {
		md = vis.validator.provider.ForValue(model)
	}

	if id, ok := identityOf(reflect.ValueOf(model), value); ok {
		if _, seen := vis.active[id]; seen {
			return valid, nil
		}

		vis.active[id] = struct{}{}
		defer delete(vis.active, id)
	}

	childrenValid, err := vis.visitChildren(md, key, model, depth)
	if err != nil {
		return false, err
	}

	if childrenValid || !md.IsComplex() || vis.validator.opts.ValidateComplexTypesIfChildValidationFails {
		if !vis.validateSelf(key, model) {
			valid = false
		}
	}

	valid = valid && childrenValid
	vis.markValid(key, valid)

	return valid, nil
}

func (vis *visitor) visitChildren(md *metadata.TypeMetadata, key string, model any, depth int) (bool, error) {
	strat := vis.validator.strategyFor(md)
	if strat == nil {
		return true, nil
	}

	children, err := strat.Children(md, key, model)
	if err != nil {
		vis.log.Warn("Unable to enumerate model", "key", key, "metadata", md.String(), "error", err)

		return false, logger.AnnotateError(fmt.Errorf("validating %q: %w", key, err),
			"key", key, "metadata", md.String())
	}

	valid := true

	for entry := range children {
		childValid, err := vis.visit(entry.Metadata, entry.Key, entry.Model, depth+1)
		if err != nil {
			return false, err
		}

		valid = valid && childValid

		if vis.state.HasReachedMaxErrors() {
			return false, nil
		}
	}

	return valid, nil
}

// applyRules checks the property's tag rules. Rules on structs only check
// presence: the struct's own properties carry their own rules.
func (vis *visitor) applyRules(md *metadata.TypeMetadata, key string, model any) bool {
	rules := md.Rules()
	if rules == "" {
		return true
	}

	if value, ok := deref(model); ok && value.Kind() == reflect.Struct && md.IsComplex() {
		return true
	}

	err := vis.validator.rules.VarCtx(vis.ctx, model, rules)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vis.state.TryAddModelError(key, err)

		return false
	}

	for _, fe := range fieldErrs {
		if !vis.state.AddModelError(key, ruleMessage(fe)) {
			break
		}
	}

	return false
}

func ruleMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed the '%s=%s' rule", fe.Tag(), fe.Param())
	}

	return fmt.Sprintf("failed the '%s' rule", fe.Tag())
}

// validateSelf calls the model's own Validate method, if any. A *FieldError
// is recorded under the property it names, anything else under key.
func (vis *visitor) validateSelf(key string, model any) bool {
	err := callValidate(vis.ctx, model)
	if err == nil {
		return true
	}

	for _, e := range splitErrors(err) {
		var fieldErr *FieldError

		var recorded bool
		if errors.As(e, &fieldErr) {
			recorded = vis.state.AddModelError(
				modelnames.CreatePropertyModelName(key, fieldErr.Field), fieldErr.Message)
		} else {
			recorded = vis.state.TryAddModelError(key, e)
		}

		if !recorded {
			break
		}
	}

	return false
}

// callValidate invokes the model's Validate method. HasValidate wins when a
// type implements both interfaces. A panic is returned as an error.
func callValidate(ctx context.Context, model any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %T.Validate: %v", model, r)
		}
	}()

	switch m := addressable(model).(type) {
	case HasValidate:
		return m.Validate()
	case HasValidateWithContext:
		return m.Validate(ctx)
	default:
		return nil
	}
}

var (
	hasValidateType            = reflect.TypeFor[HasValidate]()            //nolint:gochecknoglobals
	hasValidateWithContextType = reflect.TypeFor[HasValidateWithContext]() //nolint:gochecknoglobals
)

// addressable returns a pointer to a copy of model when only the pointer type
// has a Validate method. Properties and elements arrive as copies, so their
// pointer-receiver methods are otherwise out of reach.
func addressable(model any) any {
	switch model.(type) {
	case nil, HasValidate, HasValidateWithContext:
		return model
	}

	value := reflect.ValueOf(model)
	if value.Kind() == reflect.Pointer {
		return model
	}

	ptr := reflect.PointerTo(value.Type())
	if !ptr.Implements(hasValidateType) && !ptr.Implements(hasValidateWithContextType) {
		return model
	}

	p := reflect.New(value.Type())
	p.Elem().Set(value)

	return p.Interface()
}

func (vis *visitor) markValid(key string, valid bool) {
	if !valid {
		return
	}

	if _, ok := vis.state.Get(key); ok {
		vis.state.MarkFieldValid(key)
	}
}

// deref follows pointers and interfaces. It returns false for nil and for nil
// maps and slices, which have nothing to visit.
func deref(model any) (reflect.Value, bool) {
	if model == nil {
		return reflect.Value{}, false
	}

	value := reflect.ValueOf(model)

	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return reflect.Value{}, false
		}

		value = value.Elem()
	}

	switch value.Kind() { //nolint:exhaustive
	case reflect.Map, reflect.Slice:
		if value.IsNil() {
			return reflect.Value{}, false
		}
	}

	return value, true
}

func identityOf(original, value reflect.Value) (identity, bool) {
	switch {
	case original.Kind() == reflect.Pointer:
		return identity{typ: original.Type(), ptr: original.Pointer()}, true
	case value.Kind() == reflect.Map:
		return identity{typ: value.Type(), ptr: value.Pointer()}, true
	case value.Kind() == reflect.Slice && value.Len() > 0:
		return identity{typ: value.Type(), ptr: value.Pointer(), n: value.Len()}, true
	default:
		return identity{}, false
	}
}
