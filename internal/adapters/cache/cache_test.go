package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bymedia/echoboard/internal/adapters/cache"
	"github.com/smartystreets/goconvey/convey"
)

func openCache(t *testing.T, opts ...cache.Option) *cache.SQLiteCache {
	t.Helper()
	c, err := cache.Open(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetOrCompute(t *testing.T) {
	convey.Convey("Given an open cache", t, func() {
		ctx := context.Background()
		c := openCache(t)

		convey.Convey("When a key is missing", func() {
			calls := 0
			value, hit, err := c.GetOrCompute(ctx, "query:go podcasts", func(context.Context) ([]byte, error) {
				calls++
				return []byte(`{"items":[]}`), nil
			})

			convey.Convey("Then compute should run once and the value be returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(hit, convey.ShouldBeFalse)
				convey.So(calls, convey.ShouldEqual, 1)
				convey.So(string(value), convey.ShouldEqual, `{"items":[]}`)
			})
		})

		convey.Convey("When a key has been computed before", func() {
			_, _, err := c.GetOrCompute(ctx, "query:go podcasts", func(context.Context) ([]byte, error) {
				return []byte("first"), nil
			})
			convey.So(err, convey.ShouldBeNil)

			calls := 0
			value, hit, err := c.GetOrCompute(ctx, "query:go podcasts", func(context.Context) ([]byte, error) {
				calls++
				return []byte("second"), nil
			})

			convey.Convey("Then the hit should never invoke compute", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(hit, convey.ShouldBeTrue)
				convey.So(calls, convey.ShouldEqual, 0)
				convey.So(string(value), convey.ShouldEqual, "first")
			})
		})

		convey.Convey("When compute fails", func() {
			boom := errors.New("upstream down")
			_, _, err := c.GetOrCompute(ctx, "query:failing", func(context.Context) ([]byte, error) {
				return nil, boom
			})

			convey.Convey("Then the error should propagate and nothing be cached", func() {
				convey.So(err, convey.ShouldEqual, boom)

				value, hit, err := c.GetOrCompute(ctx, "query:failing", func(context.Context) ([]byte, error) {
					return []byte("recovered"), nil
				})
				convey.So(err, convey.ShouldBeNil)
				convey.So(hit, convey.ShouldBeFalse)
				convey.So(string(value), convey.ShouldEqual, "recovered")
			})
		})

		convey.Convey("When the key is empty", func() {
			_, _, err := c.GetOrCompute(ctx, "", func(context.Context) ([]byte, error) {
				return []byte("x"), nil
			})

			convey.Convey("Then an error should be returned", func() {
				convey.So(err, convey.ShouldWrap, cache.ErrEmptyKey)
			})
		})

		convey.Convey("When a key is invalidated", func() {
			_, _, err := c.GetOrCompute(ctx, "query:stale", func(context.Context) ([]byte, error) {
				return []byte("old"), nil
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.Invalidate(ctx, "query:stale"), convey.ShouldBeNil)

			value, hit, err := c.GetOrCompute(ctx, "query:stale", func(context.Context) ([]byte, error) {
				return []byte("fresh"), nil
			})

			convey.Convey("Then the next read should recompute", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(hit, convey.ShouldBeFalse)
				convey.So(string(value), convey.ShouldEqual, "fresh")
			})
		})
	})
}

func TestCacheTTL(t *testing.T) {
	convey.Convey("Given a cache with a short TTL", t, func() {
		ctx := context.Background()
		c := openCache(t, cache.WithTTL(50*time.Millisecond))

		convey.Convey("When an entry outlives the TTL", func() {
			_, _, err := c.GetOrCompute(ctx, "query:expiring", func(context.Context) ([]byte, error) {
				return []byte("v1"), nil
			})
			convey.So(err, convey.ShouldBeNil)

			time.Sleep(80 * time.Millisecond)

			value, hit, err := c.GetOrCompute(ctx, "query:expiring", func(context.Context) ([]byte, error) {
				return []byte("v2"), nil
			})

			convey.Convey("Then the entry should be recomputed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(hit, convey.ShouldBeFalse)
				convey.So(string(value), convey.ShouldEqual, "v2")
			})
		})

		convey.Convey("When an entry is still fresh", func() {
			_, _, err := c.GetOrCompute(ctx, "query:fresh", func(context.Context) ([]byte, error) {
				return []byte("v1"), nil
			})
			convey.So(err, convey.ShouldBeNil)

			value, hit, err := c.GetOrCompute(ctx, "query:fresh", func(context.Context) ([]byte, error) {
				return []byte("v2"), nil
			})

			convey.Convey("Then the cached value should be served", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(hit, convey.ShouldBeTrue)
				convey.So(string(value), convey.ShouldEqual, "v1")
			})
		})
	})
}
