// Package maps provides an insertion-ordered map. It satisfies
// metadata.Mapping, so the validator enumerates its pairs in the order they
// were added.
package maps

import (
	"iter"
	"slices"
)

// KeyValuePair is one entry of an OrderedMap.
type KeyValuePair[K comparable, V any] struct {
	Key   K
	Value V
}

// OrderedMap is a map that remembers the order in which keys were first
// added. It is not safe for concurrent use.
type OrderedMap[K comparable, V any] struct {
	index   map[K]int
	entries []KeyValuePair[K, V]
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]int)}
}

// Add inserts or replaces the value for key. A replaced key keeps its
// original position.
func (m *OrderedMap[K, V]) Add(key K, value V) {
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value

		return
	}

	m.index[key] = len(m.entries)
	m.entries = append(m.entries, KeyValuePair[K, V]{Key: key, Value: value})
}

// Get returns the value for key.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if i, ok := m.index[key]; ok {
		return m.entries[i].Value, true
	}

	var zero V

	return zero, false
}

// Contains reports whether key is present.
func (m *OrderedMap[K, V]) Contains(key K) bool {
	_, ok := m.index[key]

	return ok
}

// Remove deletes key and reports whether it was present. Later keys move up
// one position.
func (m *OrderedMap[K, V]) Remove(key K) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}

	delete(m.index, key)
	m.entries = slices.Delete(m.entries, i, i+1)

	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].Key] = j
	}

	return true
}

// Clear removes every entry.
func (m *OrderedMap[K, V]) Clear() {
	clear(m.index)
	m.entries = m.entries[:0]
}

// Size returns the number of entries.
func (m *OrderedMap[K, V]) Size() int {
	return len(m.entries)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	keys := make([]K, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.Key)
	}

	return keys
}

// Seq yields (position, entry) in insertion order:
//
//	for i, entry := range m.Seq() {
//	    // entry.Key, entry.Value
//	}
func (m *OrderedMap[K, V]) Seq() iter.Seq2[int, KeyValuePair[K, V]] {
	return func(yield func(int, KeyValuePair[K, V]) bool) {
		for i, e := range m.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Pairs yields each key and value in insertion order, untyped.
func (m *OrderedMap[K, V]) Pairs() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for _, e := range m.Seq() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}
