package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/luma-sync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func req(id string) Request {
	return model.SyncRequest{CalendarID: id, RequestedAt: time.Now()}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		ctx := context.Background()

		Convey("When a request is enqueued and dequeued", func() {
			So(q.Enqueue(ctx, req("cdmx")), ShouldBeNil)
			So(q.Len(ctx), ShouldEqual, 1)
			got := <-q.Dequeue(ctx)

			Convey("Then it comes out unchanged and the queue is empty", func() {
				So(got.CalendarID, ShouldEqual, "cdmx")
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, req("a")), ShouldBeNil)
			So(q.Enqueue(ctx, req("b")), ShouldBeNil)
			err := q.Enqueue(ctx, req("c"))

			Convey("Then ErrFull is returned without blocking", func() {
				So(errors.Is(err, ErrFull), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := q.Enqueue(cctx, req("a"))

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed with a pending request", func() {
			So(q.Enqueue(ctx, req("a")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new requests are rejected and the pending one drains", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, req("b")), ErrClosed), ShouldBeTrue)

				var drained []string
				for r := range q.Dequeue(ctx) {
					drained = append(drained, r.CalendarID)
				}
				So(drained, ShouldResemble, []string{"a"})
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}

func TestInMemoryQueueConcurrentProducers(t *testing.T) {
	Convey("Given several producers and one consumer", t, func() {
		q := NewInMemoryQueue(WithCapacity(8))
		ctx := context.Background()
		const producers, perProducer = 4, 25

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					for q.Enqueue(ctx, req(fmt.Sprintf("%d-%d", p, i))) != nil {
						time.Sleep(time.Millisecond)
					}
				}
			}(p)
		}
		go func() {
			wg.Wait()
			_ = q.Close()
		}()

		count := 0
		for range q.Dequeue(ctx) {
			count++
		}

		Convey("Then every request is delivered exactly once", func() {
			So(count, ShouldEqual, producers*perProducer)
		})
	})
}
