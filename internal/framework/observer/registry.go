package observer

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Registry keeps the ordered membership of a Subject and fans values out to it.
// Insertion order is dispatch order. A subscriber handle is present at most once.
//
// Registry is safe for concurrent use. The membership lock is held only while the membership is changed or copied,
// never while a subscriber is being notified.
type Registry[T any] struct {
	collector   DispatchCollector
	logger      logr.Logger
	subscribers []Subscriber[T]
	lock        sync.Mutex
}

// NewRegistry creates a new Registry.
// A nil collector disables dispatch metrics.
func NewRegistry[T any](logger logr.Logger, collector DispatchCollector) *Registry[T] {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	if collector == nil {
		collector = noopCollector{}
	}

	return &Registry[T]{
		collector: collector,
		logger:    logger,
	}
}

// Add appends the subscriber to the membership. It returns false and leaves the membership unchanged if the
// subscriber is already present, nil, or not comparable.
func (r *Registry[T]) Add(subscriber Subscriber[T]) bool {
	if !isComparable(subscriber) {
		return false
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.index(subscriber) >= 0 {
		r.logger.V(1).Info(
			fmt.Sprintf("Ignoring duplicate subscriber %T", subscriber),
			"number of subscribers",
			len(r.subscribers),
		)
		return false
	}

	r.subscribers = append(r.subscribers, subscriber)
	r.logger.V(1).Info(
		fmt.Sprintf("Added subscriber %T", subscriber),
		"number of subscribers",
		len(r.subscribers),
	)

	return true
}

// Remove removes the subscriber from the membership. It returns false if the subscriber is not present.
func (r *Registry[T]) Remove(subscriber Subscriber[T]) bool {
	if !isComparable(subscriber) {
		return false
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	idx := r.index(subscriber)
	if idx < 0 {
		r.logger.V(1).Info(fmt.Sprintf("Ignoring removal of unknown subscriber %T", subscriber))
		return false
	}

	// Snapshots are copies, so a dispatch in progress still notifies the removed subscriber.
	r.subscribers = slices.Delete(r.subscribers, idx, idx+1)
	r.logger.V(1).Info(
		fmt.Sprintf("Removed subscriber %T", subscriber),
		"number of subscribers",
		len(r.subscribers),
	)

	return true
}

// Subscribers returns a copy of the membership in dispatch order.
func (r *Registry[T]) Subscribers() []Subscriber[T] {
	r.lock.Lock()
	defer r.lock.Unlock()

	return slices.Clone(r.subscribers)
}

// Len returns the number of subscribers.
func (r *Registry[T]) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.subscribers)
}

// index returns the position of the subscriber, or -1 if it is not present.
// Members that cannot be compared with the subscriber do not match. It must be called with the lock held.
func (r *Registry[T]) index(subscriber Subscriber[T]) int {
	for i, s := range r.subscribers {
		if equal, err := sameHandle(s, subscriber); err == nil && equal {
			return i
		}
	}

	return -1
}

// DispatchAll notifies every subscriber of the membership snapshot taken at the start of the call.
// It blocks until all subscribers of the snapshot were notified, or until ctx is done. Subscribers that were not
// reached before ctx was done are reported as NotDelivered.
func (r *Registry[T]) DispatchAll(ctx context.Context, value T) DispatchResult[T] {
	snapshot := r.Subscribers()
	start := time.Now()

	var result DispatchResult[T]

	for i, subscriber := range snapshot {
		if ctx.Err() != nil {
			result.NotDelivered = snapshot[i:]
			r.logger.Info(
				"Dispatch context is done; skipping remaining subscribers",
				"error", ctx.Err(),
				"skipped", len(result.NotDelivered),
			)
			break
		}

		if err := notify(ctx, subscriber, value); err != nil {
			result.Failed = append(result.Failed, DeliveryFailure[T]{Subscriber: subscriber, Err: err})
			r.logger.Error(err, fmt.Sprintf("Failed to notify subscriber %T", subscriber))
			continue
		}

		result.Delivered = append(result.Delivered, subscriber)
	}

	r.collector.ObserveDispatch(time.Since(start), len(result.Delivered), len(result.Failed), len(result.NotDelivered))

	return result
}

// notify calls OnNotify and turns a panic into an error.
func notify[T any](ctx context.Context, subscriber Subscriber[T], value T) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanicked, p)
		}
	}()

	return subscriber.OnNotify(ctx, value)
}
