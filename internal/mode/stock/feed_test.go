package stock_test

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/nginx/pricewatch/internal/mode/stock"
)

// blockingSubscriber blocks until the dispatch context is done.
type blockingSubscriber struct {
	calls atomic.Int32
}

func (b *blockingSubscriber) OnNotify(ctx context.Context, _ float64) error {
	b.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

var _ = Describe("Feed", func() {
	var (
		tracker *stock.Tracker
		acme    *stock.Stock
		chart   *stock.Chart
		ticksCh chan stock.Tick
		errorCh chan error
	)

	startFeed := func(ctx context.Context, timeout time.Duration) {
		feed := stock.NewFeed(stock.FeedConfig{
			Tracker:         tracker,
			TicksCh:         ticksCh,
			Logger:          zap.New(),
			DispatchTimeout: timeout,
		})

		go func() {
			errorCh <- feed.Start(ctx)
		}()
	}

	BeforeEach(func() {
		tracker = stock.NewTracker(stock.TrackerConfig{Logger: zap.New()})

		var err error
		acme, err = tracker.Track("ACME")
		Expect(err).ToNot(HaveOccurred())

		chart = stock.NewChart("Display1", &bytes.Buffer{})
		Expect(acme.Register(chart)).To(Succeed())

		ticksCh = make(chan stock.Tick)
		errorCh = make(chan error)
	})

	Describe("Normal processing", func() {
		BeforeEach(func() {
			ctx, cancel := context.WithCancel(context.Background())
			DeferCleanup(func(dctx SpecContext) {
				cancel()
				var err error
				Eventually(errorCh).WithContext(dctx).Should(Receive(&err))
				Expect(err).ToNot(HaveOccurred())
			}, NodeTimeout(time.Second*10))

			startFeed(ctx, 0)
		})

		It("should apply ticks in order", func() {
			ticksCh <- stock.Tick{Symbol: "ACME", Price: 5}
			ticksCh <- stock.Tick{Symbol: "ACME", Price: 1}

			Eventually(chart.Rendered).Should(Equal(2))

			last, ok := chart.Last()
			Expect(ok).To(BeTrue())
			Expect(last).To(Equal(1.0))
			Expect(acme.Price()).To(Equal(1.0))
		})

		It("should drop ticks of untracked symbols", func() {
			ticksCh <- stock.Tick{Symbol: "INIT", Price: 3}
			ticksCh <- stock.Tick{Symbol: "ACME", Price: 4}

			Eventually(chart.Rendered).Should(Equal(1))
			Expect(acme.Price()).To(Equal(4.0))
		})

		It("should drop ticks of a symbol that stopped being tracked", func() {
			ticksCh <- stock.Tick{Symbol: "ACME", Price: 4}
			Eventually(chart.Rendered).Should(Equal(1))

			Expect(tracker.Untrack("ACME")).To(BeTrue())

			ticksCh <- stock.Tick{Symbol: "ACME", Price: 5}
			Consistently(chart.Rendered).Should(Equal(1))
		})
	})

	Describe("Stopping", func() {
		It("should return nil when the ticks channel is closed", func(ctx SpecContext) {
			startFeed(ctx, 0)

			ticksCh <- stock.Tick{Symbol: "ACME", Price: 5}
			close(ticksCh)

			var err error
			Eventually(errorCh).WithContext(ctx).Should(Receive(&err))
			Expect(err).ToNot(HaveOccurred())
			Expect(chart.Rendered()).To(Equal(1))
		}, NodeTimeout(time.Second*10))

		It("should return nil when started with canceled context without blocking", func(ctx context.Context) {
			ctx, cancel := context.WithCancel(ctx)
			cancel()

			feed := stock.NewFeed(stock.FeedConfig{Tracker: tracker, TicksCh: ticksCh})
			Expect(feed.Start(ctx)).To(Succeed())
		})
	})

	Describe("Dispatch timeout", func() {
		It("should stop a dispatch that exceeds the timeout", func(ctx SpecContext) {
			blocking := &blockingSubscriber{}
			last := stock.NewChart("Display2", &bytes.Buffer{})

			Expect(acme.Deregister(chart)).To(Succeed())
			Expect(acme.Register(blocking)).To(Succeed())
			Expect(acme.Register(last)).To(Succeed())

			startFeed(ctx, 10*time.Millisecond)

			// the feed receives the second tick only after the first dispatch timed out
			ticksCh <- stock.Tick{Symbol: "ACME", Price: 1}
			ticksCh <- stock.Tick{Symbol: "ACME", Price: 2}
			close(ticksCh)

			var err error
			Eventually(errorCh).WithContext(ctx).Should(Receive(&err))
			Expect(err).ToNot(HaveOccurred())

			Expect(blocking.calls.Load()).To(BeEquivalentTo(2))
			Expect(last.Rendered()).To(BeZero())
			Expect(acme.Price()).To(Equal(2.0))
		}, NodeTimeout(time.Second*10))
	})
})
