package events_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal/core/events"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(logger.Discard())
	})

	It("delivers asynchronously to every handler of the event type", func() {
		var mu sync.Mutex
		var seen []string
		record := func(name string) events.Handler {
			return func(_ context.Context, ev events.Event) error {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, name+":"+ev.(*events.ResolutionEvent).ResolutionID)
				return nil
			}
		}
		bus.Subscribe(events.EventTypeInteractionCreated, record("a"))
		bus.Subscribe(events.EventTypeInteractionCreated, record("b"))
		bus.Subscribe(events.EventTypeProgressCreated, record("other"))

		Expect(bus.Publish(context.Background(), events.NewInteractionCreatedEvent("r-1", 7, nil))).To(Succeed())

		Eventually(func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), seen...)
		}).Should(ConsistOf("a:r-1", "b:r-1"))
	})

	It("ignores events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.NewStatusChangedEvent("r-1", 7, nil))).To(Succeed())
		Expect(bus.PublishSync(context.Background(), events.NewStatusChangedEvent("r-1", 7, nil))).To(Succeed())
	})

	It("stops at the first failing handler when publishing synchronously", func() {
		calls := 0
		bus.Subscribe(events.EventTypeProgressCreated, func(context.Context, events.Event) error {
			calls++
			return errors.New("sink down")
		})
		bus.Subscribe(events.EventTypeProgressCreated, func(context.Context, events.Event) error {
			calls++
			return nil
		})

		err := bus.PublishSync(context.Background(), events.NewProgressCreatedEvent("r-1", 7, nil))
		Expect(err).To(MatchError(ContainSubstring("sink down")))
		Expect(calls).To(Equal(1))
	})

	It("keeps async handlers running after the publisher's context ends", func() {
		release := make(chan struct{})
		var handlerErr error
		bus.Subscribe(events.EventTypeInteractionCreated, func(ctx context.Context, _ events.Event) error {
			<-release
			handlerErr = ctx.Err()
			return nil
		})

		reqCtx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(reqCtx, events.NewInteractionCreatedEvent("r-1", 7, nil))).To(Succeed())
		cancel()
		close(release)

		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(handlerErr).NotTo(HaveOccurred())
	})

	It("gives up draining when the deadline passes", func() {
		release := make(chan struct{})
		defer close(release)
		bus.Subscribe(events.EventTypeProgressCreated, func(context.Context, events.Event) error {
			<-release
			return nil
		})
		Expect(bus.Publish(context.Background(), events.NewProgressCreatedEvent("r-1", 7, nil))).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		Expect(bus.Drain(ctx)).To(MatchError(context.DeadlineExceeded))
	})

	It("carries the resolution and actor in the event data", func() {
		ev := events.NewResolutionEvent(events.EventTypeResolutionCreated, "r-9", 3, map[string]string{"status": "notified"})
		Expect(ev.EventID()).ToNot(BeEmpty())
		Expect(ev.EventType()).To(Equal(events.EventTypeResolutionCreated))
		Expect(ev.Payload()).To(HaveKeyWithValue("resolution_id", "r-9"))
		Expect(ev.Payload()).To(HaveKeyWithValue("actor_id", int64(3)))
	})
})
