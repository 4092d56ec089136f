package binding

import (
	"context"
	"reflect"
	"testing"

	amperrors "github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/modelstate"
	"github.com/amp-labs/amp-validation/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `validate:"required"`
	Zip  string
}

type line struct {
	Sku string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"min=1"`
}

type customer struct {
	Name    string `validate:"required"`
	Age     int    `validate:"min=18"`
	Address address
	Lines   []line
}

type item struct {
	Name string `validate:"required"`
}

type catalog struct {
	Items  map[string]item
	Counts map[string]int
}

type taggedOrder struct {
	Lines []line `json:"line_items"`
}

func TestTryUpdateModel_Valid(t *testing.T) {
	t.Parallel()

	var target customer

	state, err := New(nil).TryUpdateModel(context.Background(), &target, "", map[string]any{
		"Name":    "Ann",
		"Age":     "42",
		"Address": map[string]any{"City": "Oslo"},
	})
	require.NoError(t, err)

	assert.True(t, state.IsValid())
	assert.Equal(t, customer{Name: "Ann", Age: 42, Address: address{City: "Oslo"}}, target)

	entry, ok := state.Get("Age")
	require.True(t, ok)
	assert.Equal(t, "42", entry.RawValue)
	assert.Equal(t, "42", entry.AttemptedValue)
	assert.Equal(t, modelstate.Valid, entry.State)

	entry, ok = state.Get("Address")
	require.True(t, ok)
	assert.Empty(t, entry.AttemptedValue)
}

func TestTryUpdateModel_ConversionAndRuleErrors(t *testing.T) {
	t.Parallel()

	var target customer

	state, err := New(validate.New()).TryUpdateModel(context.Background(), &target, "", map[string]any{
		"Name":    "Ann",
		"Age":     "abc",
		"Address": map[string]any{"City": ""},
	})
	require.NoError(t, err)
	assert.False(t, state.IsValid())

	errs := state.Errors()
	require.Len(t, errs["Age"], 2)
	assert.Contains(t, errs["Age"][0], "cannot parse 'Age' as int")
	assert.Equal(t, "failed the 'min=18' rule", errs["Age"][1])
	assert.Equal(t, []string{"failed the 'required' rule"}, errs["Address.City"])

	assert.Equal(t, modelstate.Valid, state.GetFieldValidationState("Name"))
}

func TestTryUpdateModel_StrictInput(t *testing.T) {
	t.Parallel()

	var target customer

	state, err := New(nil, WithWeaklyTypedInput(false)).TryUpdateModel(
		context.Background(), &target, "", map[string]any{"Name": "Ann", "Age": "42"})
	require.NoError(t, err)

	errs := state.Errors()
	require.NotEmpty(t, errs["Age"])
	assert.Contains(t, errs["Age"][0], "'Age' expected type 'int'")
}

func TestTryUpdateModel_NestedCollections(t *testing.T) {
	t.Parallel()

	var target customer

	state, err := New(nil).TryUpdateModel(context.Background(), &target, "customer", map[string]any{
		"Name":    "Ann",
		"Age":     30,
		"Address": map[string]any{"City": "Oslo"},
		"Lines": []any{
			map[string]any{"Sku": "a", "Qty": 1},
			map[string]any{"Sku": "b", "Qty": "x"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, modelstate.Invalid, state.GetValidationState("customer.Lines[1]"))
	assert.Equal(t, modelstate.Valid, state.GetValidationState("customer.Lines[0]"))

	entry, ok := state.Get("customer.Lines[1].Qty")
	require.True(t, ok)
	assert.Equal(t, "x", entry.RawValue)
	assert.Contains(t, entry.Errors[0].Error(), "Lines[1].Qty")
}

func TestTryUpdateModel_Maps(t *testing.T) {
	t.Parallel()

	var target catalog

	state, err := New(nil).TryUpdateModel(context.Background(), &target, "", map[string]any{
		"Items":  map[string]any{"alice": map[string]any{"Name": "x"}},
		"Counts": map[string]any{"a": "3"},
	})
	require.NoError(t, err)

	assert.Equal(t, catalog{
		Items:  map[string]item{"alice": {Name: "x"}},
		Counts: map[string]int{"a": 3},
	}, target)
	assert.True(t, state.IsValid())
	assert.Equal(t, []string{"Counts", "Items"}, state.Keys())
	assert.Equal(t, modelstate.Valid, state.GetFieldValidationState("Items"))

	entry, ok := state.Get("Counts")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": "3"}, entry.RawValue)
}

func TestTryUpdateModel_InvalidMapValue(t *testing.T) {
	t.Parallel()

	var target catalog

	state, err := New(nil).TryUpdateModel(context.Background(), &target, "", map[string]any{
		"Items": map[string]any{"bob": map[string]any{"Name": ""}},
	})
	require.NoError(t, err)

	assert.False(t, state.IsValid())
	assert.Equal(t, map[string][]string{
		"Items[0].Value.Name": {"failed the 'required' rule"},
	}, state.Errors())
	assert.Equal(t, modelstate.Invalid, state.GetValidationState("Items"))
}

func TestTryUpdateModel_CaseInsensitiveInput(t *testing.T) {
	t.Parallel()

	var target customer

	state, err := New(nil).TryUpdateModel(context.Background(), &target, "", map[string]any{
		"name":    "Ann",
		"AGE":     "42",
		"address": map[string]any{"city": "Oslo"},
	})
	require.NoError(t, err)
	assert.True(t, state.IsValid())

	entry, ok := state.Get("Name")
	require.True(t, ok)
	assert.Equal(t, "Ann", entry.RawValue)

	entry, ok = state.Get("Age")
	require.True(t, ok)
	assert.Equal(t, "42", entry.AttemptedValue)

	entry, ok = state.Get("Address.City")
	require.True(t, ok)
	assert.Equal(t, "Oslo", entry.RawValue)
}

func TestIsMapKeyed(t *testing.T) {
	t.Parallel()

	target := reflect.ValueOf(&catalog{Items: map[string]item{"alice": {}}})
	binder := New(nil)

	assert.False(t, binder.isMapKeyed(target, "Items"))
	assert.True(t, binder.isMapKeyed(target, "Items[alice]"))
	assert.True(t, binder.isMapKeyed(target, "Items[alice].Name"))
	assert.True(t, binder.isMapKeyed(target, "Counts[a]"))
	assert.False(t, binder.isMapKeyed(target, "Missing"))
	assert.True(t, binder.isMapKeyed(target, "not a key"))
}

func TestTryUpdateModel_TagNames(t *testing.T) {
	t.Parallel()

	var target taggedOrder

	binder := New(validate.New(validate.WithNameTag("json")), WithTagName("json"))

	state, err := binder.TryUpdateModel(context.Background(), &target, "", map[string]any{
		"line_items": []any{map[string]any{"sku": "a", "qty": 0}},
	})
	require.NoError(t, err)

	assert.Equal(t, []line{{Sku: "a"}}, target.Lines)
	assert.Equal(t, map[string][]string{
		"line_items[0].qty": {"failed the 'min=1' rule"},
	}, state.Errors())
	assert.Equal(t, modelstate.Valid, state.GetFieldValidationState("line_items[0].sku"))
}

func TestTryUpdateModel_WrongTarget(t *testing.T) {
	t.Parallel()

	binder := New(nil)

	_, err := binder.TryUpdateModel(context.Background(), customer{}, "", nil)
	require.ErrorIs(t, err, amperrors.ErrWrongType)

	var nilTarget *customer

	_, err = binder.TryUpdateModel(context.Background(), nilTarget, "", nil)
	require.ErrorIs(t, err, amperrors.ErrWrongType)

	_, err = binder.TryUpdateModel(context.Background(), nil, "", nil)
	require.ErrorIs(t, err, amperrors.ErrWrongType)
}

func TestQuotedName(t *testing.T) {
	t.Parallel()

	name, ok := quotedName("'Lines[0].Qty' expected type 'int', got unconvertible type 'string'")
	require.True(t, ok)
	assert.Equal(t, "Lines[0].Qty", name)

	_, ok = quotedName("no quotes here")
	assert.False(t, ok)

	_, ok = quotedName("'' empty")
	assert.False(t, ok)
}
