package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/luma-sync/internal/domain/model"
	"github.com/okian/luma-sync/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func raw(s string) model.RawEvent {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		panic(err)
	}
	return m
}

func TestSlugFromURL(t *testing.T) {
	Convey("Given provider URLs", t, func() {
		cases := map[string]string{
			"https://lu.ma/talk-1":                 "talk-1",
			"http://lu.ma/abc123/":                 "abc123",
			"https://www.lu.ma/ai_night?tk=xyz":    "ai_night",
			"https://luma.com/hackathon-2025":      "hackathon-2025",
			"https://luma.com/event/evt-9Qx#about": "evt-9Qx",
			"  https://lu.ma/padded  ":             "padded",
		}
		for in, want := range cases {
			slug, ok := normalize.SlugFromURL(in)
			So(ok, ShouldBeTrue)
			So(slug, ShouldEqual, want)
		}
	})

	Convey("Given URLs outside the pattern family", t, func() {
		for _, in := range []string{
			"",
			"#event",
			"https://example.com/talk-1",
			"https://lu.ma/",
			"https://lu.ma/cdmx/events/1",
			"https://lu.ma.evil.com/talk-1",
			"ftp://lu.ma/talk-1",
		} {
			_, ok := normalize.SlugFromURL(in)
			So(ok, ShouldBeFalse)
		}
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given a complete event object", t, func() {
		ev, ok := normalize.Normalize(raw(`{
			"@type": "Event",
			"@id": "https://lu.ma/talk-1",
			"url": "https://lu.ma/other",
			"name": "Intro to Go",
			"startDate": "2025-03-01T18:00:00.000-06:00",
			"endDate": "2025-03-01T20:00:00.000-06:00",
			"image": ["https://images.lumacdn.com/a.png", "https://images.lumacdn.com/b.png"],
			"location": {
				"@type": "Place",
				"address": {"@type": "PostalAddress", "streetAddress": "Av. Reforma 222"},
				"geo": {"@type": "GeoCoordinates", "latitude": 19.4326, "longitude": -99.1332}
			}
		}`), "cdmx")

		Convey("Then every field is resolved", func() {
			So(ok, ShouldBeTrue)
			So(ev.Slug, ShouldEqual, "talk-1")
			So(ev.SourceURL, ShouldEqual, "https://lu.ma/talk-1")
			So(ev.Title, ShouldEqual, "Intro to Go")
			So(ev.StartDate, ShouldEqual, "2025-03-01T18:00:00.000-06:00")
			So(*ev.EndDate, ShouldEqual, "2025-03-01T20:00:00.000-06:00")
			So(*ev.Location, ShouldEqual, "Av. Reforma 222")
			So(*ev.Coordinates, ShouldResemble, model.Coordinates{Lat: 19.4326, Lng: -99.1332})
			So(*ev.CoverImage, ShouldEqual, "https://images.lumacdn.com/a.png")
			So(ev.CalendarID, ShouldEqual, "cdmx")
		})
	})

	Convey("Given an object with only a url field and no optional data", t, func() {
		ev, ok := normalize.Normalize(raw(`{"url": "https://lu.ma/bare", "startDate": "2025-03-01"}`), "cdmx")

		Convey("Then defaults are applied", func() {
			So(ok, ShouldBeTrue)
			So(ev.Slug, ShouldEqual, "bare")
			So(ev.Title, ShouldEqual, model.UntitledEvent)
			So(ev.EndDate, ShouldBeNil)
			So(ev.Location, ShouldBeNil)
			So(ev.Coordinates, ShouldBeNil)
			So(ev.CoverImage, ShouldBeNil)
		})
	})

	Convey("Given an object with neither @id nor url", t, func() {
		_, ok := normalize.Normalize(raw(`{"@type": "Event", "name": "Orphan"}`), "cdmx")

		Convey("Then it is dropped", func() {
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an @id that does not match the pattern family", t, func() {
		_, ok := normalize.Normalize(raw(`{"@id": "https://example.com/e/1", "url": "https://lu.ma/x"}`), "cdmx")

		Convey("Then it is dropped even though url would match", func() {
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCoordinates(t *testing.T) {
	Convey("Given coordinates as strings and as numbers", t, func() {
		fromStrings := normalize.Coordinates(raw(`{"location":{"geo":{"latitude":"19.4326","longitude":"-99.1332"}}}`))
		fromNumbers := normalize.Coordinates(raw(`{"location":{"geo":{"latitude":19.4326,"longitude":-99.1332}}}`))

		Convey("Then they normalize to identical values", func() {
			So(fromStrings, ShouldNotBeNil)
			So(fromNumbers, ShouldNotBeNil)
			So(*fromStrings, ShouldResemble, *fromNumbers)
		})
	})

	Convey("Given a missing axis", t, func() {
		So(normalize.Coordinates(raw(`{"location":{"geo":{"latitude":19.4326}}}`)), ShouldBeNil)
		So(normalize.Coordinates(raw(`{"location":{"geo":{"longitude":"-99.1"}}}`)), ShouldBeNil)
	})

	Convey("Given a non numeric string", t, func() {
		So(normalize.Coordinates(raw(`{"location":{"geo":{"latitude":"north","longitude":"-99.1"}}}`)), ShouldBeNil)
	})

	Convey("Given a location without geo", t, func() {
		So(normalize.Coordinates(raw(`{"location":"Online"}`)), ShouldBeNil)
		So(normalize.Location(raw(`{"location":"Online"}`)), ShouldBeNil)
	})
}

func TestCoverImage(t *testing.T) {
	Convey("Given image shapes", t, func() {
		So(*normalize.CoverImage(raw(`{"image":"https://img/x.png"}`)), ShouldEqual, "https://img/x.png")
		So(*normalize.CoverImage(raw(`{"image":["https://img/1.png"]}`)), ShouldEqual, "https://img/1.png")
		So(normalize.CoverImage(raw(`{"image":[]}`)), ShouldBeNil)
		So(normalize.CoverImage(raw(`{"image":{"url":"https://img/obj.png"}}`)), ShouldBeNil)
		So(normalize.CoverImage(raw(`{}`)), ShouldBeNil)
	})
}
