package observer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

var (
	// ErrNilSubscriber is returned when a nil Subscriber is registered or deregistered.
	ErrNilSubscriber = errors.New("subscriber cannot be nil")
	// ErrUncomparableSubscriber is returned for a Subscriber whose dynamic type cannot be compared with ==.
	ErrUncomparableSubscriber = errors.New("subscriber type is not comparable")
	// ErrSubjectRetired is returned by every mutating operation of a retired Subject.
	ErrSubjectRetired = errors.New("subject is retired")
)

// SubjectConfig holds the dependencies of a Subject.
type SubjectConfig struct {
	// Collector records dispatch metrics. Nil disables metrics.
	Collector DispatchCollector
	// Logger is the logger of the Subject and its Registry. The zero value discards logs.
	Logger logr.Logger
}

// Subject stores the latest value and pushes every new value to the registered Subscribers.
//
// A Subject is Active when created and Retired after Retire. A retired Subject rejects Register, Deregister and
// SetValue with ErrSubjectRetired. There is no way back from Retired.
type Subject[T any] struct {
	registry *Registry[T]
	logger   logr.Logger

	value T

	// dispatchLock serializes SetValue, so dispatches of one Subject never interleave.
	dispatchLock sync.Mutex
	// lifecycleLock is held for reading by Register and Deregister and for writing by Retire, so no membership
	// change lands after Retire returns.
	lifecycleLock sync.RWMutex
	valueLock     sync.RWMutex
	retired       atomic.Bool
}

// NewSubject creates a new active Subject with an empty Registry.
func NewSubject[T any](cfg SubjectConfig) *Subject[T] {
	logger := cfg.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	return &Subject[T]{
		registry: NewRegistry[T](logger.WithName("registry"), cfg.Collector),
		logger:   logger,
	}
}

// Register adds the subscriber to the Registry. The subscriber receives values starting from the next SetValue; it
// does not receive the current value. Registering a subscriber that is already registered is a no-op.
func (s *Subject[T]) Register(subscriber Subscriber[T]) error {
	if err := validateSubscriber(subscriber); err != nil {
		return err
	}

	s.lifecycleLock.RLock()
	defer s.lifecycleLock.RUnlock()

	if s.retired.Load() {
		return ErrSubjectRetired
	}

	s.registry.Add(subscriber)
	return nil
}

// Deregister removes the subscriber from the Registry. The subscriber receives no values starting from the next
// SetValue. Deregistering a subscriber that is not registered is a no-op.
//
// Deregister can be called from OnNotify. The dispatch in progress still notifies the subscriber if it had not
// reached it yet.
func (s *Subject[T]) Deregister(subscriber Subscriber[T]) error {
	if err := validateSubscriber(subscriber); err != nil {
		return err
	}

	s.lifecycleLock.RLock()
	defer s.lifecycleLock.RUnlock()

	if s.retired.Load() {
		return ErrSubjectRetired
	}

	s.registry.Remove(subscriber)
	return nil
}

// SetValue stores the value and dispatches it to all registered subscribers, even if the value equals the current
// one. It blocks until the dispatch finishes. Concurrent calls are serialized.
//
// If ctx is done before all subscribers were notified, the remaining ones are reported as NotDelivered.
// The returned error is non-nil only if the Subject is retired; subscriber failures are reported in the
// DispatchResult.
func (s *Subject[T]) SetValue(ctx context.Context, value T) (DispatchResult[T], error) {
	s.dispatchLock.Lock()
	defer s.dispatchLock.Unlock()

	if s.retired.Load() {
		return DispatchResult[T]{}, ErrSubjectRetired
	}

	s.valueLock.Lock()
	s.value = value
	s.valueLock.Unlock()

	s.logger.V(1).Info("Dispatching value", "number of subscribers", s.registry.Len())

	return s.registry.DispatchAll(ctx, value), nil
}

// Value returns the latest value. It is the zero value of T until the first SetValue.
func (s *Subject[T]) Value() T {
	s.valueLock.RLock()
	defer s.valueLock.RUnlock()

	return s.value
}

// Subscribers returns the registered subscribers in dispatch order.
func (s *Subject[T]) Subscribers() []Subscriber[T] {
	return s.registry.Subscribers()
}

// Retire moves the Subject to the Retired state. A dispatch in progress completes; the next SetValue fails.
// Register and Deregister calls that started before Retire finish first. Retiring a retired Subject is a no-op.
func (s *Subject[T]) Retire() {
	s.lifecycleLock.Lock()
	defer s.lifecycleLock.Unlock()

	if s.retired.Swap(true) {
		return
	}

	s.logger.V(1).Info("Subject retired")
}

// Retired returns true if the Subject was retired.
func (s *Subject[T]) Retired() bool {
	return s.retired.Load()
}

func validateSubscriber[T any](subscriber Subscriber[T]) error {
	if subscriber == nil {
		return ErrNilSubscriber
	}
	if !isComparable(subscriber) {
		return ErrUncomparableSubscriber
	}

	return nil
}
