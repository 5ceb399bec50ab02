package observer

import (
	"context"
	"fmt"
	"reflect"
)

// Subscriber receives the values published by a Subject.
//
// OnNotify may call Register or Deregister on the Subject that notifies it. It must not call SetValue on that
// Subject, because dispatches of a Subject are serialized.
type Subscriber[T any] interface {
	// OnNotify is called with every value published after the Subscriber was registered.
	// A non-nil error reports that the value was not delivered.
	OnNotify(ctx context.Context, value T) error
}

// isComparable reports whether the Subscriber can be used as a registry handle.
// Handles are compared with ==, which panics for dynamic types like funcs, maps and slices. A struct type is
// comparable even if one of its interface fields holds such a value, so the handle is also compared with itself.
func isComparable[T any](s Subscriber[T]) bool {
	if s == nil || !reflect.TypeOf(s).Comparable() {
		return false
	}

	_, err := sameHandle(s, s)
	return err == nil
}

// sameHandle compares two handles with ==. It returns an error instead of panicking if the values cannot be
// compared.
func sameHandle[T any](a, b Subscriber[T]) (equal bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrUncomparableSubscriber, p)
		}
	}()

	return a == b, nil
}
