// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"cmp"
	"iter"
	"slices"

	"golang.org/x/exp/constraints"
)

// Map is a map that keeps its entries sorted by key, in memory owned by an
// arena. The zero value is an empty map.
type Map[K constraints.Ordered, V any] struct {
	entries []mapEntry[K, V]
}

type mapEntry[K constraints.Ordered, V any] struct {
	key   K
	value V
}

func (m *Map[K, V]) search(key K) (int, bool) {
	return slices.BinarySearchFunc(m.entries, key, func(e mapEntry[K, V], key K) int {
		return cmp.Compare(e.key, key)
	})
}

// Insert sets the value of key, growing the map in a if necessary.
func (m *Map[K, V]) Insert(a *Arena, key K, value V) {
	i, ok := m.search(key)
	if ok {
		m.entries[i].value = value
		return
	}
	// After growing, Insert works in place.
	m.entries = slices.Insert(grow(a, m.entries, 1), i, mapEntry[K, V]{key, value})
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	if i, ok := m.search(key); ok {
		return m.entries[i].value, true
	}
	return *new(V), false
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	i, ok := m.search(key)
	if ok {
		m.entries = slices.Delete(m.entries, i, i+1)
	}
	return ok
}

func (m *Map[K, V]) Len() int {
	return len(m.entries)
}

// All iterates over the map in key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}
