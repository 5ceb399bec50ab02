package observer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/nginx/pricewatch/internal/framework/helpers"
	"github.com/nginx/pricewatch/internal/framework/observer"
	"github.com/nginx/pricewatch/internal/framework/observer/observerfakes"
)

func newSubject() *observer.Subject[float64] {
	return observer.NewSubject[float64](observer.SubjectConfig{Logger: zap.New()})
}

func TestSubject_SetValueAlwaysNotifies(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	log := &callLog{}
	a := newRecorder("a", log)

	subject := newSubject()
	g.Expect(subject.Register(a)).To(Succeed())

	for range 3 {
		result, err := subject.SetValue(context.Background(), 7)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(result.Delivered).To(HaveExactElements(a))
	}

	g.Expect(subject.Value()).To(Equal(7.0))
	g.Expect(log.get()).To(HaveLen(3))
}

func TestSubject_RegisterDoesNotReplay(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	log := &callLog{}
	a := newRecorder("a", log)

	subject := newSubject()
	_, err := subject.SetValue(context.Background(), 1)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(subject.Register(a)).To(Succeed())
	g.Expect(log.get()).To(BeEmpty())

	_, err = subject.SetValue(context.Background(), 2)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(helpers.Diff([]call{{"a", 2}}, log.get(), cmpCalls)).To(BeEmpty())
}

func TestSubject_RegisterAndDeregisterMisuse(t *testing.T) {
	t.Parallel()

	uncomparable := funcSubscriber(func(context.Context, float64) error { return nil })

	tests := []struct {
		subscriber observer.Subscriber[float64]
		expErr     error
		name       string
	}{
		{
			name:       "nil subscriber",
			subscriber: nil,
			expErr:     observer.ErrNilSubscriber,
		},
		{
			name:       "uncomparable subscriber",
			subscriber: uncomparable,
			expErr:     observer.ErrUncomparableSubscriber,
		},
		{
			name:       "struct holding a slice",
			subscriber: wrappedSubscriber{inner: []int{1}},
			expErr:     observer.ErrUncomparableSubscriber,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			subject := newSubject()

			g.Expect(subject.Register(test.subscriber)).To(MatchError(test.expErr))
			g.Expect(subject.Deregister(test.subscriber)).To(MatchError(test.expErr))
			g.Expect(subject.Subscribers()).To(BeEmpty())
		})
	}
}

func TestSubject_RegisterStructsHoldingSlices(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	subject := newSubject()

	g.Expect(func() {
		g.Expect(subject.Register(wrappedSubscriber{inner: []int{1}})).To(MatchError(observer.ErrUncomparableSubscriber))
		g.Expect(subject.Register(wrappedSubscriber{inner: []int{2}})).To(MatchError(observer.ErrUncomparableSubscriber))
		g.Expect(subject.Deregister(wrappedSubscriber{inner: []int{1}})).To(MatchError(observer.ErrUncomparableSubscriber))
	}).ToNot(Panic())

	g.Expect(subject.Subscribers()).To(BeEmpty())
}

func TestSubject_DuplicateAndUnknownAreNoOps(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	a := newRecorder("a", &callLog{})
	b := newRecorder("b", &callLog{})

	subject := newSubject()
	g.Expect(subject.Register(a)).To(Succeed())
	g.Expect(subject.Register(a)).To(Succeed())
	g.Expect(subject.Deregister(b)).To(Succeed())

	g.Expect(subject.Subscribers()).To(HaveExactElements(a))
}

func TestSubject_DeregisterDuringDispatch(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	log := &callLog{}
	a := newRecorder("a", log)
	b := newRecorder("b", log)
	c := newRecorder("c", log)

	subject := newSubject()
	b.hook = func(context.Context, float64) error {
		return subject.Deregister(c)
	}

	g.Expect(subject.Register(a)).To(Succeed())
	g.Expect(subject.Register(b)).To(Succeed())
	g.Expect(subject.Register(c)).To(Succeed())

	result, err := subject.SetValue(context.Background(), 1)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Delivered).To(HaveExactElements(a, b, c))

	result, err = subject.SetValue(context.Background(), 2)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Delivered).To(HaveExactElements(a, b))

	expected := []call{
		{"a", 1}, {"b", 1}, {"c", 1},
		{"a", 2}, {"b", 2},
	}
	g.Expect(helpers.Diff(expected, log.get(), cmpCalls)).To(BeEmpty())
}

func TestSubject_Retire(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	log := &callLog{}
	a := newRecorder("a", log)
	b := newRecorder("b", log)

	subject := newSubject()
	g.Expect(subject.Register(a)).To(Succeed())
	g.Expect(subject.Register(b)).To(Succeed())

	// a retires the subject in the middle of a dispatch; the dispatch still completes.
	a.hook = func(context.Context, float64) error {
		subject.Retire()
		return nil
	}

	result, err := subject.SetValue(context.Background(), 1)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Delivered).To(HaveExactElements(a, b))
	g.Expect(subject.Retired()).To(BeTrue())

	_, err = subject.SetValue(context.Background(), 2)
	g.Expect(err).To(MatchError(observer.ErrSubjectRetired))
	g.Expect(subject.Register(newRecorder("c", log))).To(MatchError(observer.ErrSubjectRetired))
	g.Expect(subject.Deregister(a)).To(MatchError(observer.ErrSubjectRetired))

	subject.Retire()
	g.Expect(subject.Retired()).To(BeTrue())
	g.Expect(subject.Value()).To(Equal(1.0))
	g.Expect(log.get()).To(HaveLen(2))
}

func TestSubject_NoRegistrationAfterRetire(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	subject := newSubject()

	const registrants = 8

	var wg sync.WaitGroup
	start := make(chan struct{})

	for range registrants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for {
				r := newRecorder("r", &callLog{})
				if err := subject.Register(r); err != nil {
					if !errors.Is(err, observer.ErrSubjectRetired) {
						t.Errorf("unexpected error: %v", err)
					}
					return
				}
			}
		}()
	}

	close(start)
	subject.Retire()
	registered := len(subject.Subscribers())

	wg.Wait()

	g.Expect(subject.Subscribers()).To(HaveLen(registered))
}

func TestSubject_SetValueReportsFailures(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	collector := &observerfakes.FakeDispatchCollector{}
	subject := observer.NewSubject[float64](observer.SubjectConfig{
		Logger:    zap.New(),
		Collector: collector,
	})

	log := &callLog{}
	a := newRecorder("a", log)
	a.hook = func(context.Context, float64) error { return errors.New("unavailable") }

	g.Expect(subject.Register(a)).To(Succeed())

	result, err := subject.SetValue(context.Background(), 3)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Failed).To(HaveLen(1))
	g.Expect(result.Err()).To(MatchError(ContainSubstring("unavailable")))

	g.Expect(collector.ObserveDispatchCallCount()).To(Equal(1))
	_, delivered, failed, _ := collector.ObserveDispatchArgsForCall(0)
	g.Expect(delivered).To(BeZero())
	g.Expect(failed).To(Equal(1))
}

func TestSubject_ZeroConfig(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	subject := observer.NewSubject[string](observer.SubjectConfig{})

	result, err := subject.SetValue(context.Background(), "v1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Total()).To(BeZero())
	g.Expect(subject.Value()).To(Equal("v1"))
}

// serialCounter fails the test if two dispatches reach it at the same time.
type serialCounter struct {
	t        *testing.T
	inFlight atomic.Int32
	calls    atomic.Int32
}

func (s *serialCounter) OnNotify(context.Context, float64) error {
	if s.inFlight.Add(1) != 1 {
		s.t.Error("dispatches of a subject interleaved")
	}
	s.calls.Add(1)
	s.inFlight.Add(-1)
	return nil
}

func TestSubject_ConcurrentUse(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	subject := newSubject()
	counter := &serialCounter{t: t}
	g.Expect(subject.Register(counter)).To(Succeed())

	const (
		producers = 8
		values    = 50
	)

	var wg sync.WaitGroup

	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range values {
				_, err := subject.SetValue(context.Background(), float64(i))
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}

	// churn registers and deregisters other subscribers while the producers dispatch
	for i := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := newRecorder(string(rune('a'+i)), &callLog{})
			for range values {
				_ = subject.Register(r)
				_ = subject.Deregister(r)
			}
		}()
	}

	wg.Wait()

	g.Expect(counter.calls.Load()).To(BeEquivalentTo(producers * values))
	g.Expect(subject.Subscribers()).To(HaveExactElements(counter))
}
