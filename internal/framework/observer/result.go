package observer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotificationFailed is wrapped by every error returned from DispatchResult.Err.
	ErrNotificationFailed = errors.New("subscriber notification failed")
	// ErrSubscriberPanicked is reported for a subscriber that panicked in OnNotify.
	ErrSubscriberPanicked = errors.New("subscriber panicked")
)

// DeliveryFailure is a subscriber whose OnNotify failed during a dispatch.
type DeliveryFailure[T any] struct {
	// Subscriber is the handle of the failed subscriber.
	Subscriber Subscriber[T]
	// Err is the error returned by OnNotify, or an ErrSubscriberPanicked error.
	Err error
}

// DispatchResult is the outcome of a single dispatch.
// Every subscriber of the dispatch snapshot appears in exactly one of the fields.
type DispatchResult[T any] struct {
	// Delivered are the subscribers that accepted the value, in dispatch order.
	Delivered []Subscriber[T]
	// Failed are the subscribers that returned an error or panicked, in dispatch order.
	Failed []DeliveryFailure[T]
	// NotDelivered are the subscribers that were skipped because the dispatch context was done.
	NotDelivered []Subscriber[T]
}

// Complete returns true if every subscriber of the snapshot accepted the value.
func (r DispatchResult[T]) Complete() bool {
	return len(r.Failed) == 0 && len(r.NotDelivered) == 0
}

// Total returns the size of the dispatch snapshot.
func (r DispatchResult[T]) Total() int {
	return len(r.Delivered) + len(r.Failed) + len(r.NotDelivered)
}

// Err joins the failures of the dispatch. It returns nil if no subscriber failed.
// Subscribers in NotDelivered are not failures and are not part of the error.
func (r DispatchResult[T]) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}

	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%w: %T: %w", ErrNotificationFailed, f.Subscriber, f.Err))
	}

	return errors.Join(errs...)
}
