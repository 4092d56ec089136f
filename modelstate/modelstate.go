// Package modelstate records the outcome of binding and validating a model,
// keyed by the path expression of each value.
//
// A Dictionary is owned by a single validation pass and is not safe for
// concurrent mutation.
package modelstate

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/maps"
	"github.com/amp-labs/amp-validation/modelnames"
	"golang.org/x/text/cases"
)

// DefaultMaxErrors is the error cap of a dictionary built without WithMaxErrors.
const DefaultMaxErrors = 200

// ValidationState is the validation status of one key, or of a key and
// everything beneath it.
type ValidationState int

const (
	// Unvalidated means nothing has checked the value yet.
	Unvalidated ValidationState = iota
	// Invalid means at least one error is recorded.
	Invalid
	// Valid means the value was checked and passed.
	Valid
	// Skipped means the value was deliberately left unchecked.
	Skipped
)

// String returns the lower-case name of the state.
func (s ValidationState) String() string {
	switch s {
	case Unvalidated:
		return "unvalidated"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Error is a single error recorded against a key. Exactly one of Message and
// Err is meaningful; Err carries errors raised during binding or validation.
type Error struct {
	Message string
	Err     error
}

// Error returns the message, or the wrapped error's text when Err is set.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return e.Message
}

// Unwrap returns Err.
func (e *Error) Unwrap() error { return e.Err }

// Entry is everything known about one key.
type Entry struct {
	Key            string
	RawValue       any
	AttemptedValue string
	Errors         []*Error
	State          ValidationState
}

// Dictionary maps path expressions to entries. Keys are compared with Unicode
// case folding, so "Items[0].Name" and "items[0].name" are the same key.
type Dictionary struct {
	entries    *maps.OrderedMap[string, *Entry]
	maxErrors  int
	errorCount int
	capped     bool
	fold       cases.Caser
}

// Option configures a Dictionary built with New.
type Option func(*Dictionary)

// WithMaxErrors sets how many errors the dictionary accepts. Values below one
// are ignored.
func WithMaxErrors(n int) Option {
	return func(d *Dictionary) {
		if n > 0 {
			d.maxErrors = n
		}
	}
}

// New returns an empty dictionary with the default error cap.
func New(opts ...Option) *Dictionary {
	d := &Dictionary{
		entries:   maps.NewOrderedMap[string, *Entry](),
		maxErrors: DefaultMaxErrors,
		fold:      cases.Fold(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Dictionary) normalize(key string) string {
	return d.fold.String(key)
}

func (d *Dictionary) getOrAdd(key string) *Entry {
	norm := d.normalize(key)

	if entry, ok := d.entries.Get(norm); ok {
		return entry
	}

	entry := &Entry{Key: key}
	d.entries.Add(norm, entry)

	return entry
}

// Get returns the entry for key, if any.
func (d *Dictionary) Get(key string) (*Entry, bool) {
	return d.entries.Get(d.normalize(key))
}

// Len is the number of keys in the dictionary.
func (d *Dictionary) Len() int { return d.entries.Size() }

// MaxErrors is the error cap.
func (d *Dictionary) MaxErrors() int { return d.maxErrors }

// ErrorCount is the number of errors recorded, including the one signalling
// that the cap was reached.
func (d *Dictionary) ErrorCount() int { return d.errorCount }

// HasReachedMaxErrors reports whether further errors will be refused.
func (d *Dictionary) HasReachedMaxErrors() bool { return d.capped }

// AddModelError records message against key. It returns false when the error
// cap has been reached and the error was not recorded.
func (d *Dictionary) AddModelError(key, message string) bool {
	return d.add(key, &Error{Message: message})
}

// TryAddModelError records err against key. It returns false when the error
// cap has been reached and the error was not recorded.
func (d *Dictionary) TryAddModelError(key string, err error) bool {
	if err == nil {
		return true
	}

	return d.add(key, &Error{Err: err})
}

func (d *Dictionary) add(key string, e *Error) bool {
	if d.capped {
		return false
	}

	if d.errorCount >= d.maxErrors-1 {
		// The last slot is reserved for the error saying we are full.
		d.capped = true
		e = &Error{Err: fmt.Errorf("%w: limit is %d", errors.ErrTooManyModelErrors, d.maxErrors)}
	}

	entry := d.getOrAdd(key)
	entry.Errors = append(entry.Errors, e)
	entry.State = Invalid
	d.errorCount++

	return !d.capped
}

// SetModelValue records the raw input bound to key and its string form.
func (d *Dictionary) SetModelValue(key string, raw any, attempted string) {
	entry := d.getOrAdd(key)
	entry.RawValue = raw
	entry.AttemptedValue = attempted
}

// MarkFieldValid marks key valid unless it already has errors.
func (d *Dictionary) MarkFieldValid(key string) {
	entry := d.getOrAdd(key)
	if entry.State != Invalid {
		entry.State = Valid
	}
}

// MarkFieldSkipped marks key as deliberately not validated unless it already
// has errors.
func (d *Dictionary) MarkFieldSkipped(key string) {
	entry := d.getOrAdd(key)
	if entry.State != Invalid {
		entry.State = Skipped
	}
}

// GetFieldValidationState returns the state recorded for key alone.
func (d *Dictionary) GetFieldValidationState(key string) ValidationState {
	if entry, ok := d.Get(key); ok {
		return entry.State
	}

	return Unvalidated
}

// GetValidationState aggregates key and every key beneath it: Invalid if any
// is invalid, otherwise Unvalidated if any is unvalidated, otherwise Skipped
// if any was skipped, otherwise Valid. A key with nothing recorded is
// Unvalidated; the empty key aggregates the whole dictionary, which is Valid
// when empty.
func (d *Dictionary) GetValidationState(key string) ValidationState {
	found := false
	result := Valid

	for _, entry := range d.FindKeysWithPrefix(key) {
		found = true

		switch entry.State {
		case Invalid:
			return Invalid
		case Unvalidated:
			result = Unvalidated
		case Skipped:
			if result == Valid {
				result = Skipped
			}
		case Valid:
		}
	}

	if !found && key != "" {
		return Unvalidated
	}

	return result
}

// IsValid reports whether nothing in the dictionary is invalid or left
// unvalidated.
func (d *Dictionary) IsValid() bool {
	state := d.GetValidationState("")

	return state == Valid || state == Skipped
}

// FindKeysWithPrefix yields every entry at or beneath prefix, in insertion order.
func (d *Dictionary) FindKeysWithPrefix(prefix string) iter.Seq2[string, *Entry] {
	return func(yield func(string, *Entry) bool) {
		for _, kv := range d.entries.Seq() {
			entry := kv.Value
			if !modelnames.HasPrefix(entry.Key, prefix) {
				continue
			}

			if !yield(entry.Key, entry) {
				return
			}
		}
	}
}

// ClearValidationState drops the errors of key and everything beneath it and
// returns those entries to Unvalidated.
func (d *Dictionary) ClearValidationState(key string) {
	for _, entry := range d.FindKeysWithPrefix(key) {
		d.errorCount -= len(entry.Errors)
		entry.Errors = nil
		entry.State = Unvalidated
	}

	if d.errorCount < d.maxErrors {
		d.capped = false
	}
}

// Remove deletes key (and only key) from the dictionary.
func (d *Dictionary) Remove(key string) bool {
	norm := d.normalize(key)

	entry, ok := d.entries.Get(norm)
	if !ok {
		return false
	}

	d.errorCount -= len(entry.Errors)

	return d.entries.Remove(norm)
}

// Merge copies every entry of other into d. Errors are appended subject to
// d's cap; raw values and states from other win when set.
func (d *Dictionary) Merge(other *Dictionary) {
	if other == nil {
		return
	}

	for _, kv := range other.entries.Seq() {
		src := kv.Value
		dst := d.getOrAdd(src.Key)

		if src.RawValue != nil || src.AttemptedValue != "" {
			dst.RawValue = src.RawValue
			dst.AttemptedValue = src.AttemptedValue
		}

		for _, e := range src.Errors {
			if !d.add(src.Key, e) {
				break
			}
		}

		if dst.State != Invalid && src.State != Unvalidated {
			dst.State = src.State
		}
	}
}

// Keys returns every key in natural order, so "items[2]" sorts before
// "items[10]". The root key "" always comes first.
func (d *Dictionary) Keys() []string {
	keys := make([]string, 0, d.entries.Size())
	for _, kv := range d.entries.Seq() {
		keys = append(keys, kv.Value.Key)
	}

	slices.SortFunc(keys, compareKeys)

	return keys
}

// compareKeys is a total order: the root key, then natural order, then byte
// order for keys natsort considers equal.
func compareKeys(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	less, greater := natsort.Compare(a, b), natsort.Compare(b, a)

	switch {
	case less && !greater:
		return -1
	case greater && !less:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Errors returns the error messages per key for every invalid key.
func (d *Dictionary) Errors() map[string][]string {
	out := make(map[string][]string)

	for _, kv := range d.entries.Seq() {
		entry := kv.Value
		for _, e := range entry.Errors {
			out[entry.Key] = append(out[entry.Key], e.Error())
		}
	}

	return out
}

// Err summarizes the dictionary as an error wrapping errors.ErrValidation, or
// nil when the dictionary is valid. Errors recorded with TryAddModelError stay
// reachable through errors.Is.
func (d *Dictionary) Err() error {
	if d.errorCount == 0 {
		return nil
	}

	var (
		lines  []string
		causes errors.Collection
	)

	for _, key := range d.Keys() {
		entry, _ := d.Get(key)
		for _, e := range entry.Errors {
			label := key
			if label == "" {
				label = "(root)"
			}

			lines = append(lines, fmt.Sprintf("%s: %s", label, e.Error()))
			causes.Add(e.Err)
		}
	}

	cause := causes.GetError()
	if cause == nil {
		return fmt.Errorf("%w: %s", errors.ErrValidation, strings.Join(lines, "; "))
	}

	return fmt.Errorf("%w: %s: %w", errors.ErrValidation, strings.Join(lines, "; "), cause)
}
