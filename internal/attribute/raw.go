package attribute

// cell is a fill-once value. Once set, it never changes.
type cell[T any] struct {
	value  T
	filled bool
}

func (c *cell[T]) get() (value T, ok bool) {
	return c.value, c.filled
}

func (c *cell[T]) set(value T) {
	if c.filled {
		return
	}
	c.value = value
	c.filled = true
}

// RawValue is the value of an attribute before it is cast. It is either known
// or produced on demand by a function which is called at most once.
type RawValue struct {
	value    any
	producer func() any
	memo     cell[any]
}

// Eager returns a raw value that is already known.
func Eager(value any) RawValue {
	return RawValue{value: value}
}

// Deferred returns a raw value that will be produced by the given function when
// first needed.
func Deferred(producer func() any) RawValue {
	return RawValue{producer: producer}
}

// MaybeDeferred returns a deferred raw value if the value is a producer function,
// otherwise an eager one.
func MaybeDeferred(value any) RawValue {
	switch producer := value.(type) {
	case func() any:
		if producer != nil {
			return Deferred(producer)
		}
		return Eager(nil)
	case RawValue:
		return producer
	}
	return Eager(value)
}

// IsDeferred returns true if the value was given by a producer function.
func (raw *RawValue) IsDeferred() bool {
	return raw.producer != nil
}

// Get returns the raw value, invoking the producer if need be.
func (raw *RawValue) Get() any {
	if raw.producer == nil {
		return raw.value
	}
	value, ok := raw.memo.get()
	if !ok {
		value = raw.producer()
		raw.memo.set(value)
	}
	return value
}
