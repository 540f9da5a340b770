package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/bulletin/internal/adapters/repository"
	"github.com/okian/bulletin/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store seeded with announcements", t, func() {
		store := repository.NewMemoryStore(
			repository.WithSeed(ranking.Announcements,
				repository.Record{ID: 1, Title: "A", Views: 10},
				repository.Record{ID: 2, Title: "B", Views: 50},
				repository.Record{ID: 3, Title: "C", Views: 5},
			),
		)

		Convey("When reading the top 5 announcements", func() {
			got, err := store.TopByViews(ctx, ranking.Announcements, 5)

			Convey("Then they should be ordered by views", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []repository.Record{
					{ID: 2, Title: "B", Views: 50},
					{ID: 1, Title: "A", Views: 10},
					{ID: 3, Title: "C", Views: 5},
				})
			})
		})

		Convey("When reading the empty events collection", func() {
			got, err := store.TopByViews(ctx, ranking.Events, 5)

			Convey("Then the result should be empty", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When incrementing views", func() {
			So(store.IncrementViews(ctx, ranking.Announcements, 3, 100), ShouldBeNil)
			got, _ := store.TopByViews(ctx, ranking.Announcements, 1)

			Convey("Then the ranking should reflect the new count", func() {
				So(got[0].ID, ShouldEqual, 3)
				So(got[0].Views, ShouldEqual, 105)
			})
		})

		Convey("When incrementing an unknown record", func() {
			err := store.IncrementViews(ctx, ranking.Announcements, 99, 1)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When counting records", func() {
			n, err := store.Count(ctx, ranking.Announcements)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)

			Convey("Then reads should fail", func() {
				_, err := store.TopByViews(ctx, ranking.Announcements, 5)
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				So(errors.Is(store.Ping(ctx), repository.ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When many goroutines increment concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = store.IncrementViews(ctx, ranking.Announcements, 1, 1)
				}()
			}
			wg.Wait()

			Convey("Then no increment should be lost", func() {
				got, _ := store.TopByViews(ctx, ranking.Announcements, 1)
				So(got[0].ID, ShouldEqual, 1)
				So(got[0].Views, ShouldEqual, 110)
			})
		})
	})
}
