package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/luma-sync/internal/adapters/fetch"
	repository "github.com/okian/luma-sync/internal/adapters/repository"
	service "github.com/okian/luma-sync/internal/app"
	"github.com/okian/luma-sync/internal/domain/metadata"
	"github.com/okian/luma-sync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// provider is a fake calendar provider serving canned pages.
type provider struct {
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
	// gate, when set, blocks requests for gated paths until closed.
	gate    chan struct{}
	entered chan struct{}
	gated   string
}

func newProvider() *provider {
	return &provider{pages: map[string]string{}, status: map[string]int{}, hits: map[string]int{}}
}

func (p *provider) set(path, page string) {
	p.mu.Lock()
	p.pages[path] = page
	p.mu.Unlock()
}

func (p *provider) fail(path string, code int) {
	p.mu.Lock()
	p.status[path] = code
	p.mu.Unlock()
}

func (p *provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	p.mu.Lock()
	p.hits[path]++
	page, ok := p.pages[path]
	code := p.status[path]
	gated := p.gate != nil && path == p.gated
	p.mu.Unlock()

	if gated {
		p.entered <- struct{}{}
		<-p.gate
	}
	if code != 0 {
		w.WriteHeader(code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(page))
}

func ldjson(body string) string {
	return `<script type="application/ld+json">` + body + `</script>`
}

func eventJSON(slug, title string) string {
	return fmt.Sprintf(`{"@type":"Event","@id":"https://lu.ma/%s","name":%q,
"startDate":"2030-03-01T18:00:00.000-06:00","endDate":"2030-03-01T21:00:00.000-06:00",
"location":{"address":{"streetAddress":"Av. Reforma 222"},"geo":{"latitude":"19.4326","longitude":-99.1332}},
"image":["https://images.lumacdn.com/%s.png"]}`, slug, title, slug)
}

func page(blocks ...string) string {
	return "<html><head>" + strings.Join(blocks, "\n") + "</head><body></body></html>"
}

func newService(srvURL string, store repository.Store, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithStore(store),
		service.WithFetcher(fetch.New(fetch.WithBaseURL(srvURL))),
		service.WithShutdownTimeout(5 * time.Second),
	}
	return service.New(append(base, opts...)...)
}

func TestSyncCalendar(t *testing.T) {
	Convey("Given a provider page with three distinct events", t, func() {
		p := newProvider()
		srv := httptest.NewServer(p)
		defer srv.Close()

		p.set("cdmx", page(
			ldjson(`{"@type":"Organization","name":"Go CDMX","events":[`+eventJSON("talk-1", "Talk 1")+`,`+eventJSON("talk-2", "Talk 2")+`]}`),
			ldjson(`{"@type":"Event", this is not json`),
			ldjson(eventJSON("talk-3", "Talk 3")),
		))
		store := repository.NewMemoryStore()
		svc := newService(srv.URL, store)
		ctx := context.Background()

		Convey("When syncing into an empty store", func() {
			res, err := svc.SyncCalendar(ctx, "cdmx")

			Convey("Then every event is created and retrievable by slug", func() {
				So(err, ShouldBeNil)
				So(res.Success, ShouldBeTrue)
				So(res.Synced, ShouldEqual, 3)
				So(res.Created, ShouldEqual, 3)
				So(res.Updated, ShouldEqual, 0)
				So(res.Message, ShouldEqual, "Synced 3 events from cdmx (3 created, 0 updated)")
				for _, slug := range []string{"talk-1", "talk-2", "talk-3"} {
					ev, err := svc.GetEvent(ctx, slug)
					So(err, ShouldBeNil)
					So(ev.CalendarID, ShouldEqual, "cdmx")
					So(ev.IsPublished, ShouldBeTrue)
					So(ev.IsFeatured, ShouldBeFalse)
					So(*ev.Coordinates, ShouldResemble, model.Coordinates{Lat: 19.4326, Lng: -99.1332})
				}
			})

			Convey("And syncing again", func() {
				again, err := svc.SyncCalendar(ctx, "cdmx")

				Convey("Then the run is idempotent", func() {
					So(err, ShouldBeNil)
					So(again.Created, ShouldEqual, 0)
					So(again.Updated, ShouldEqual, 3)
					n, _ := store.Count(ctx)
					So(n, ShouldEqual, 3)
				})
			})

			Convey("And an administrator features an event before the next sync", func() {
				ev, _ := store.FindBySlug(ctx, "talk-2")
				ev.IsFeatured = true
				So(store.Update(ctx, &ev), ShouldBeNil)
				_, err := svc.SyncCalendar(ctx, "cdmx")

				Convey("Then the event stays featured", func() {
					So(err, ShouldBeNil)
					got, _ := store.FindBySlug(ctx, "talk-2")
					So(got.IsFeatured, ShouldBeTrue)
				})
			})
		})
	})

	Convey("Given an organization block with one resolvable and one anonymous event", t, func() {
		p := newProvider()
		srv := httptest.NewServer(p)
		defer srv.Close()

		anonymous := `{"@type":"Event","name":"No link","startDate":"2030-04-01T10:00:00Z"}`
		p.set("cdmx", page(ldjson(`{"@type":"Organization","events":[`+eventJSON("talk-1", "Talk 1")+`,`+anonymous+`]}`)))
		store := repository.NewMemoryStore()
		svc := newService(srv.URL, store)
		ctx := context.Background()

		Convey("When syncing", func() {
			res, err := svc.SyncCalendar(ctx, "cdmx")

			Convey("Then only talk-1 is persisted and the anonymous event is skipped", func() {
				So(err, ShouldBeNil)
				So(res.Synced, ShouldEqual, 1)
				So(res.Created, ShouldEqual, 1)
				So(res.Updated, ShouldEqual, 0)
				So(res.Skipped, ShouldEqual, 1)
				n, _ := store.Count(ctx)
				So(n, ShouldEqual, 1)
				_, err = store.FindBySlug(ctx, "talk-1")
				So(err, ShouldBeNil)
			})

			Convey("And the source renames talk-1 after curation", func() {
				ev, _ := store.FindBySlug(ctx, "talk-1")
				ev.IsPublished = false
				ev.IsFeatured = true
				So(store.Update(ctx, &ev), ShouldBeNil)

				p.set("cdmx", page(ldjson(`{"@type":"Organization","events":[`+eventJSON("talk-1", "Talk 1: revised")+`]}`)))
				res, err := svc.SyncCalendar(ctx, "cdmx")

				Convey("Then the title updates and curation is untouched", func() {
					So(err, ShouldBeNil)
					So(res.Updated, ShouldEqual, 1)
					got, _ := store.FindBySlug(ctx, "talk-1")
					So(got.Title, ShouldEqual, "Talk 1: revised")
					So(got.IsPublished, ShouldBeFalse)
					So(got.IsFeatured, ShouldBeTrue)
				})
			})
		})
	})

	Convey("Given a provider answering 503", t, func() {
		p := newProvider()
		srv := httptest.NewServer(p)
		defer srv.Close()
		p.fail("cdmx", http.StatusServiceUnavailable)

		store := repository.NewMemoryStore()
		seed := &model.CanonicalEvent{Slug: "kept", Title: "Kept", StartDate: time.Now(), CalendarID: "cdmx"}
		So(store.Create(context.Background(), seed), ShouldBeNil)
		svc := newService(srv.URL, store)

		Convey("When syncing", func() {
			res, err := svc.SyncCalendar(context.Background(), "cdmx")

			Convey("Then the run fails with the status and the store is untouched", func() {
				var fe *fetch.FetchError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(res.Success, ShouldBeFalse)
				So(res.Error, ShouldContainSubstring, "503")
				n, _ := store.Count(context.Background())
				So(n, ShouldEqual, 1)
				got, _ := store.FindBySlug(context.Background(), "kept")
				So(got.Title, ShouldEqual, "Kept")
			})
		})
	})

	Convey("Given a run already in flight for a calendar", t, func() {
		p := newProvider()
		p.gate = make(chan struct{})
		p.entered = make(chan struct{}, 1)
		p.gated = "cdmx"
		p.set("cdmx", page(ldjson(eventJSON("talk-1", "Talk 1"))))
		srv := httptest.NewServer(p)
		defer srv.Close()

		svc := newService(srv.URL, repository.NewMemoryStore())
		ctx := context.Background()

		done := make(chan error, 1)
		go func() {
			_, err := svc.SyncCalendar(ctx, "cdmx")
			done <- err
		}()
		<-p.entered

		Convey("When a second run for the same calendar starts", func() {
			res, err := svc.SyncCalendar(ctx, "cdmx")
			close(p.gate)

			Convey("Then it is rejected while the first completes", func() {
				So(errors.Is(err, service.ErrRunInProgress), ShouldBeTrue)
				So(res.Success, ShouldBeFalse)
				So(<-done, ShouldBeNil)
			})
		})
	})
}

func TestAsyncSync(t *testing.T) {
	Convey("Given a started service with two configured calendars", t, func() {
		p := newProvider()
		srv := httptest.NewServer(p)
		defer srv.Close()
		p.set("cdmx", page(ldjson(eventJSON("talk-1", "Talk 1"))))
		p.set("gdl", page(ldjson(eventJSON("talk-2", "Talk 2"))))

		store := repository.NewMemoryStore()
		svc := newService(srv.URL, store, service.WithCalendars([]string{"cdmx", "gdl"}))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When every calendar is enqueued and the service stops", func() {
			n, err := svc.EnqueueAll(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			svc.Stop()

			Convey("Then the worker drained both runs", func() {
				count, _ := store.Count(ctx)
				So(count, ShouldEqual, 2)
				stats := svc.GetStats(ctx)
				lastRuns := stats["lastRuns"].(map[string]model.SyncRunResult)
				So(lastRuns["cdmx"].Created, ShouldEqual, 1)
				So(lastRuns["gdl"].Created, ShouldEqual, 1)
				So(stats["started"], ShouldEqual, false)
			})

			Convey("Then further enqueues are refused", func() {
				So(errors.Is(svc.Enqueue(ctx, "cdmx"), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service with a queue of one and a blocked worker", t, func() {
		p := newProvider()
		p.gate = make(chan struct{})
		p.entered = make(chan struct{}, 1)
		p.gated = "slow"
		p.set("slow", page())
		srv := httptest.NewServer(p)
		defer srv.Close()

		svc := newService(srv.URL, repository.NewMemoryStore(), service.WithQueueSize(1))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Enqueue(ctx, "slow"), ShouldBeNil)
		<-p.entered

		Convey("When more requests arrive than the queue holds", func() {
			var errs []error
			for _, id := range []string{"a", "b", "c"} {
				errs = append(errs, svc.Enqueue(ctx, id))
			}
			close(p.gate)
			svc.Stop()

			Convey("Then the overflow is rejected with ErrQueueFull", func() {
				So(errs[0], ShouldBeNil)
				full := 0
				for _, err := range errs {
					if errors.Is(err, service.ErrQueueFull) {
						full++
					}
				}
				So(full, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestExtractMetadata(t *testing.T) {
	Convey("Given an event page on the provider", t, func() {
		p := newProvider()
		srv := httptest.NewServer(p)
		defer srv.Close()
		p.set("go-night", `<html><head><meta property="og:title" content="Go Night"></head>
<body><p>Hosted by Rob</p></body></html>`)
		store := repository.NewMemoryStore()
		svc := newService(srv.URL, store)
		ctx := context.Background()

		Convey("When extracting its metadata", func() {
			md, err := svc.ExtractMetadata(ctx, "https://lu.ma/go-night")

			Convey("Then metadata is returned and nothing is stored", func() {
				So(err, ShouldBeNil)
				So(md.Title, ShouldEqual, "Go Night")
				So(md.Hosts, ShouldResemble, []string{"Rob"})
				So(md.SourceURL, ShouldEqual, "https://lu.ma/go-night")
				n, _ := store.Count(ctx)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When the URL is not a provider link", func() {
			_, err := svc.ExtractMetadata(ctx, "ftp://example.com")

			Convey("Then the error carries INVALID_LUMA_URL", func() {
				var me *metadata.Error
				So(errors.As(err, &me), ShouldBeTrue)
				So(me.Code, ShouldEqual, metadata.CodeInvalidURL)
			})
		})
	})
}

func TestWriteCalendar(t *testing.T) {
	Convey("Given a synced calendar with one unpublished event", t, func() {
		p := newProvider()
		srv := httptest.NewServer(p)
		defer srv.Close()
		p.set("cdmx", page(ldjson(`[`+eventJSON("talk-1", "Talk 1")+`,`+eventJSON("talk-2", "Talk 2")+`]`)))
		store := repository.NewMemoryStore()
		svc := newService(srv.URL, store)
		ctx := context.Background()
		_, err := svc.SyncCalendar(ctx, "cdmx")
		So(err, ShouldBeNil)

		hidden, _ := store.FindBySlug(ctx, "talk-2")
		hidden.IsPublished = false
		So(store.Update(ctx, &hidden), ShouldBeNil)

		Convey("When writing the ICS feed", func() {
			var buf bytes.Buffer
			So(svc.WriteCalendar(ctx, &buf, ""), ShouldBeNil)

			Convey("Then only published events appear", func() {
				So(buf.String(), ShouldContainSubstring, "UID:talk-1@lu.ma")
				So(buf.String(), ShouldNotContainSubstring, "talk-2@lu.ma")
			})
		})
	})
}
