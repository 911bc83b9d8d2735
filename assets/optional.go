package assets

// Optional holds either a value or nothing. Asset loading never fails in the
// usual sense - a resource which could not be obtained is simply absent and
// every consumer has to be ready for that.
type Optional[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns value and true when present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Optional[T]) IsSome() bool {
	return o.ok
}
