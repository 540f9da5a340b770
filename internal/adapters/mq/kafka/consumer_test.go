package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/bulletin/internal/app"
	"github.com/okian/bulletin/internal/domain/model"
	"github.com/okian/bulletin/internal/domain/ranking"
	"github.com/okian/bulletin/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafkago.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type recorder struct {
	mu       sync.Mutex
	events   []model.ViewEvent
	failures int
}

func (r *recorder) RecordView(_ context.Context, e model.ViewEvent, source string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if source != "kafka" {
		return false, errors.New("unexpected source " + source)
	}
	if r.failures > 0 {
		r.failures--
		return false, service.ErrBackpressure
	}
	if err := e.Validate(); err != nil {
		return false, err
	}
	r.events = append(r.events, e)
	return false, nil
}

func (r *recorder) recorded() []model.ViewEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ViewEvent(nil), r.events...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestConsumer(t *testing.T) {
	Convey("Given a consumer over three messages", t, func() {
		reader := &fakeReader{msgs: []kafkago.Message{
			{Offset: 1, Value: []byte(`{"event_id":"a","collection":"events","entity_id":4}`)},
			{Offset: 2, Value: []byte(`not json`)},
			{Offset: 3, Value: []byte(`{"event_id":"b","collection":"announcements","entity_id":9}`)},
		}}
		rec := &recorder{}
		c := NewConsumer(reader, ViewHandler(rec), WithRetryDelay(time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- c.Start(ctx) }()

		Convey("When the messages are consumed", func() {
			ok := waitFor(func() bool { return len(reader.commits()) == 3 })
			cancel()
			err := <-done

			Convey("Then valid events are recorded and every offset committed", func() {
				So(ok, ShouldBeTrue)
				So(err, ShouldBeNil)
				So(reader.commits(), ShouldResemble, []int64{1, 2, 3})
				events := rec.recorded()
				So(events, ShouldHaveLength, 2)
				So(events[0].Collection, ShouldEqual, ranking.Events)
				So(events[1].EntityID, ShouldEqual, 9)
				So(reader.closed, ShouldBeTrue)
			})
		})

		Reset(cancel)
	})

	Convey("Given a recorder that is briefly backpressured", t, func() {
		reader := &fakeReader{msgs: []kafkago.Message{
			{Offset: 7, Value: []byte(`{"event_id":"x","collection":"events","entity_id":1}`)},
		}}
		rec := &recorder{failures: 2}
		c := NewConsumer(reader, ViewHandler(rec), WithRetryDelay(time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = c.Start(ctx) }()

		Convey("Then the message is retried until it is accepted", func() {
			ok := waitFor(func() bool { return len(reader.commits()) == 1 })
			cancel()
			So(ok, ShouldBeTrue)
			So(rec.recorded(), ShouldHaveLength, 1)
		})

		Reset(cancel)
	})
}

func TestViewHandler(t *testing.T) {
	Convey("Given a view event with a mixed-case collection", t, func() {
		rec := &recorder{}
		err := ViewHandler(rec)(context.Background(), nil, []byte(`{"event_id":"m1","collection":" Events ","entity_id":2}`))

		Convey("Then the collection is normalised and the event recorded", func() {
			So(err, ShouldBeNil)
			events := rec.recorded()
			So(events, ShouldHaveLength, 1)
			So(events[0].Collection, ShouldEqual, ranking.Events)
		})
	})

	Convey("Given a view event with an unknown collection", t, func() {
		rec := &recorder{}
		err := ViewHandler(rec)(context.Background(), nil, []byte(`{"event_id":"m2","collection":"pages","entity_id":2}`))

		Convey("Then it is rejected without retry", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrRetryable), ShouldBeFalse)
			So(rec.recorded(), ShouldBeEmpty)
		})
	})
}

func TestDecodeJSON(t *testing.T) {
	Convey("Given a view event payload", t, func() {
		e, err := DecodeJSON[model.ViewEvent]([]byte(`{"event_id":"e1","collection":"events","entity_id":2,"ts":"2024-01-02T03:04:05Z"}`))

		Convey("Then it decodes into a ViewEvent", func() {
			So(err, ShouldBeNil)
			So(e.EventID, ShouldEqual, "e1")
			So(e.TS.Year(), ShouldEqual, 2024)
		})
	})

	Convey("Given garbage", t, func() {
		_, err := DecodeJSON[model.ViewEvent]([]byte(`{`))

		Convey("Then a decode error is returned", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
