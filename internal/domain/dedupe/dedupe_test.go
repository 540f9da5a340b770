package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/bulletin/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("Then it should start empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a view id is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "view-1")

			Convey("Then it should be reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same view id arrives twice", func() {
			d.SeenAndRecord(ctx, "view-1")
			seen := d.SeenAndRecord(ctx, "view-1")

			Convey("Then the second one should be a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When more ids arrive than the deduper holds", func() {
			for i := 1; i <= 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("view-%d", i))
			}

			Convey("Then the oldest id should be forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "view-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "view-2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "view-1"), ShouldBeFalse)
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "view-1")
			d.Unrecord(ctx, "view-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "view-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			So(func() { d.Unrecord(ctx, "missing") }, ShouldNotPanic)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("view-%d", i))
		}

		Convey("Then nothing should be evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "view-0"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent writers with the same id", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "view-shared") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one should win", func() {
			So(fresh, ShouldEqual, 1)
		})
	})
}
