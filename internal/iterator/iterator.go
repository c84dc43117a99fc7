// Package iterator provides forwards-only iterators over enumerable collections, allowing for early termination.
//
// Iterators run on the caller's goroutine. Indexed collections are iterated lazily by position, other
// collections are enumerated when the iterator is built.
package iterator

// Accept is a predicate that receives a value from an iterator
// and returns true if more values are desired.
type Accept[T any] func(T) bool

// Collection is a source for iterable values.
type Collection[T any] interface {
	Each(Accept[T])
}

// Indexed is a collection with positional access.
type Indexed[T any] interface {
	Collection[T]
	Len() int
	At(i int) T
}

// Iterator is a forwards-only iterator over an iterable collection with early termination.
type Iterator[T any] struct {
	next    func() (T, bool)
	stopped bool
	current T
}

// BuildIterator returns a reference to an iterator for the given collection.
func BuildIterator[T any](coll Collection[T]) *Iterator[T] {
	indexed, ok := coll.(Indexed[T])
	if !ok {
		values := []T{}
		coll.Each(func(value T) bool {
			values = append(values, value)
			return true
		})
		indexed = Slice[T](values)
	}
	i := 0
	return FromFunc(func() (value T, ok bool) {
		if i >= indexed.Len() {
			return
		}
		value = indexed.At(i)
		ok = true
		i++
		return
	})
}

// FromFunc returns an iterator over the values produced by next, which returns false when exhausted.
func FromFunc[T any](next func() (T, bool)) *Iterator[T] {
	return &Iterator[T]{next: next}
}

// Next advances the iterator, returning true if successful.
func (iter *Iterator[T]) Next() (ok bool) {
	if iter.stopped {
		return
	}
	iter.current, ok = iter.next()
	if !ok {
		iter.stopped = true
	}
	return
}

// Value returns the value of the iterable collection at the current position of the iterator.
func (iter *Iterator[T]) Value() T {
	return iter.current
}

// Stop invalidates the iterator, useful for partial iteration.
func (iter *Iterator[T]) Stop() {
	iter.stopped = true
	var zero T
	iter.current = zero
}

// Drain returns a slice of the values remaining in the iterator.
func (iter *Iterator[T]) Drain() []T {
	values := []T{}
	for iter.Next() {
		values = append(values, iter.Value())
	}
	return values
}

// Reduce fully reduces the iterated collection by adding the values sequentially to the given init value.
func Reduce[T any, U any](iter *Iterator[T], add func(U, T) U, init U) U {
	result := init
	for iter.Next() {
		result = add(result, iter.Value())
	}
	return result
}

// Map returns an iterator over the values of iter transformed by f.
func Map[T any, U any](iter *Iterator[T], f func(T) U) *Iterator[U] {
	return FromFunc(func() (value U, ok bool) {
		if !iter.Next() {
			return
		}
		value = f(iter.Value())
		ok = true
		return
	})
}

// Filter returns an iterator over the values of iter that satisfy pred.
func Filter[T any](iter *Iterator[T], pred func(T) bool) *Iterator[T] {
	return FromFunc(func() (value T, ok bool) {
		for iter.Next() {
			if pred(iter.Value()) {
				value = iter.Value()
				ok = true
				return
			}
		}
		return
	})
}

// Iterators is a collection of iterators that will be iterated consecutively.
type Iterators[T any] []*Iterator[T]

func (iters Iterators[T]) Each(accept Accept[T]) {
	for i, iter := range iters {
		for iter.Next() {
			if !accept(iter.Value()) {
				for j := i + 1; j < len(iters); j++ {
					iters[j].Stop()
				}
				return
			}
		}
	}
}

// Slice is a wrapper type for slices.
type Slice[T any] []T

func (slice Slice[T]) Each(accept Accept[T]) {
	for _, value := range slice {
		if !accept(value) {
			return
		}
	}
}

func (slice Slice[T]) Len() int {
	return len(slice)
}

func (slice Slice[T]) At(i int) T {
	return slice[i]
}
