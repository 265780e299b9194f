package dedupe_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bymedia/echoboard/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger file path", t, func() {
		path := filepath.Join(t.TempDir(), "seen_episodes.txt")

		Convey("When opening against a missing file", func() {
			l, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			defer l.Close()

			Convey("Then it starts empty", func() {
				So(l.Size(), ShouldEqual, 0)
				So(l.IsNew(ctx, "ep-1"), ShouldBeTrue)
			})
		})

		Convey("When marking identities seen", func() {
			l, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			defer l.Close()

			So(l.MarkSeen(ctx, "ep-1"), ShouldBeNil)
			So(l.MarkSeen(ctx, "ep-2"), ShouldBeNil)

			Convey("Then they are no longer new", func() {
				So(l.IsNew(ctx, "ep-1"), ShouldBeFalse)
				So(l.IsNew(ctx, "ep-2"), ShouldBeFalse)
				So(l.IsNew(ctx, "ep-3"), ShouldBeTrue)
				So(l.Size(), ShouldEqual, 2)
			})

			Convey("And marking the same identity again", func() {
				So(l.MarkSeen(ctx, "ep-1"), ShouldBeNil)

				Convey("Then the size does not change", func() {
					So(l.Size(), ShouldEqual, 2)
				})
			})
		})

		Convey("When a second sequential run reopens the ledger", func() {
			first, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			So(first.MarkSeen(ctx, "ep-1"), ShouldBeNil)
			So(first.Close(), ShouldBeNil)

			second, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			defer second.Close()

			Convey("Then identities from the first run are not new", func() {
				So(second.IsNew(ctx, "ep-1"), ShouldBeFalse)
				So(second.IsNew(ctx, "ep-2"), ShouldBeTrue)
			})
		})

		Convey("When the file already holds duplicates and blank lines", func() {
			So(os.WriteFile(path, []byte("ep-1\n\nep-1\nep-2\n"), 0o644), ShouldBeNil)
			l, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			defer l.Close()

			Convey("Then they collapse into the set", func() {
				So(l.Size(), ShouldEqual, 2)
				So(l.IsNew(ctx, "ep-1"), ShouldBeFalse)
			})
		})

		Convey("When a second process holds the lock", func() {
			first, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			defer first.Close()

			_, err = dedupe.Open(path)

			Convey("Then opening fails with ErrLedgerLocked", func() {
				So(errors.Is(err, dedupe.ErrLedgerLocked), ShouldBeTrue)
			})
		})

		Convey("When the identity contains a newline", func() {
			l, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			defer l.Close()

			err = l.MarkSeen(ctx, "ep\n1")

			Convey("Then MarkSeen refuses it", func() {
				So(errors.Is(err, dedupe.ErrInvalidIdentity), ShouldBeTrue)
				So(l.Size(), ShouldEqual, 0)
			})
		})

		Convey("When marking after Close", func() {
			l, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			So(l.Close(), ShouldBeNil)

			Convey("Then MarkSeen reports the ledger closed", func() {
				So(errors.Is(l.MarkSeen(ctx, "ep-1"), dedupe.ErrLedgerClosed), ShouldBeTrue)
			})
		})
	})
}

func TestLedgerConcurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger written from many goroutines", t, func() {
		path := filepath.Join(t.TempDir(), "seen.txt")
		l, err := dedupe.Open(path)
		So(err, ShouldBeNil)
		defer l.Close()

		const goroutines = 8
		const perGoroutine = 50

		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < perGoroutine; i++ {
					_ = l.MarkSeen(ctx, fmt.Sprintf("ep-%d-%d", g, i))
				}
			}(g)
		}
		wg.Wait()

		Convey("Then every identity is recorded exactly once", func() {
			So(l.Size(), ShouldEqual, int64(goroutines*perGoroutine))
		})

		Convey("And a reopened ledger sees all of them", func() {
			So(l.Close(), ShouldBeNil)
			reopened, err := dedupe.Open(path)
			So(err, ShouldBeNil)
			defer reopened.Close()
			So(reopened.Size(), ShouldEqual, int64(goroutines*perGoroutine))
		})
	})
}

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory ledger", t, func() {
		l := dedupe.NewMemory()

		Convey("When marking and re-checking identities", func() {
			So(l.IsNew(ctx, "ep-1"), ShouldBeTrue)
			So(l.MarkSeen(ctx, "ep-1"), ShouldBeNil)

			Convey("Then semantics match the file ledger", func() {
				So(l.IsNew(ctx, "ep-1"), ShouldBeFalse)
				So(l.Size(), ShouldEqual, 1)
			})
		})
	})
}
