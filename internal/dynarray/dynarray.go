// Package dynarray provides a growable, index-addressable array with optional
// length limit and binary search over caller-maintained order
package dynarray

import (
	"errors"
	"iter"
	"slices"
)

// ErrFull is returned by [Array.AddAt] when the array is at its limit
var ErrFull = errors.New("dynarray: array is full")

// Array is a growable array of T. Ordering is maintained by the caller: keep
// insertions at the index reported by [Array.BSearch] for binary search to stay valid.
//
// NOTE: Array is not thread-safe
type Array[T any] struct {
	elems []T
	limit int // max length; 0 means unlimited
}

// New returns an empty Array. A limit <= 0 means the array may grow without bound
func New[T any](limit int) *Array[T] {
	return &Array[T]{
		elems: make([]T, 0),
		limit: max(limit, 0),
	}
}

// Len returns the number of elements
func (a *Array[T]) Len() int {
	return len(a.elems)
}

// Limit returns the max length; 0 if unlimited
func (a *Array[T]) Limit() int {
	return a.limit
}

// Get returns the element at index i. Panics if i is out of range
func (a *Array[T]) Get(i int) T {
	return a.elems[i]
}

// AddAt inserts elem at index i shifting later elements up.
// Returns ErrFull if the array is at its limit, in which case it is left unchanged.
// Panics if i is out of range [0, Len()]
func (a *Array[T]) AddAt(i int, elem T) error {
	if a.limit > 0 && len(a.elems) >= a.limit {
		return ErrFull
	}
	a.elems = slices.Insert(a.elems, i, elem)
	return nil
}

// RemoveAt removes and returns the element at index i shifting later elements down.
// Panics if i is out of range
func (a *Array[T]) RemoveAt(i int) T {
	elem := a.elems[i]
	a.elems = slices.Delete(a.elems, i, i+1)
	return elem
}

// BSearch searches the sorted array for key using cmp, which must return <0, 0
// or >0 if the element sorts before, matches or sorts after key.
// Returns the index where key is or would be inserted and whether it was found
func BSearch[T, K any](a *Array[T], key K, cmp func(elem T, key K) int) (int, bool) {
	return slices.BinarySearchFunc(a.elems, key, cmp)
}

// All iterates over index/element pairs in order
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, e := range a.elems {
			if !yield(i, e) {
				return
			}
		}
	}
}

// IsSorted reports whether the array is sorted according to cmp
func (a *Array[T]) IsSorted(cmp func(x, y T) int) bool {
	return slices.IsSortedFunc(a.elems, cmp)
}
