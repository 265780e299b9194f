package identity_test

import (
	"errors"
	"testing"

	"github.com/bymedia/echoboard/internal/domain/identity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given a raw source record", t, func() {
		Convey("When it carries a native id", func() {
			key, err := identity.Resolve(identity.Source{
				NativeID: "spotify:episode:abc123",
				Link:     "https://example.com/ep/1",
			})

			Convey("Then the native id wins", func() {
				So(err, ShouldBeNil)
				So(key, ShouldEqual, "spotify:episode:abc123")
			})
		})

		Convey("When it only carries a link", func() {
			key, err := identity.Resolve(identity.Source{Link: "https://example.com/ep/1"})

			Convey("Then the link becomes the key", func() {
				So(err, ShouldBeNil)
				So(key, ShouldEqual, "https://example.com/ep/1")
			})
		})

		Convey("When the native id is only whitespace", func() {
			key, err := identity.Resolve(identity.Source{NativeID: "   ", Link: "https://example.com/ep/2"})

			Convey("Then it falls back to the link", func() {
				So(err, ShouldBeNil)
				So(key, ShouldEqual, "https://example.com/ep/2")
			})
		})

		Convey("When neither field is present", func() {
			key, err := identity.Resolve(identity.Source{})

			Convey("Then resolution fails with ErrMissingIdentity", func() {
				So(key, ShouldBeEmpty)
				So(errors.Is(err, identity.ErrMissingIdentity), ShouldBeTrue)
			})
		})

		Convey("When the key is the same across repeated resolutions", func() {
			src := identity.Source{NativeID: "guid-42"}
			first, err1 := identity.Resolve(src)
			second, err2 := identity.Resolve(src)

			Convey("Then the key is stable", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, second)
			})
		})
	})
}
