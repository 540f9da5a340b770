package sessionstore_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/okian/bulletin/internal/adapters/sessionstore"
	"github.com/okian/bulletin/internal/domain/session"
	"github.com/okian/bulletin/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func requestWithCookie(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/analytics/top-events", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	}
	return r
}

func TestRedisProvider(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Redis session store", t, func() {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()
		p := sessionstore.NewRedisProvider(rdb)

		So(mr.Set("session:admin-token", `{"user_id":"1","role":"ADMIN"}`), ShouldBeNil)
		So(mr.Set("session:user-token", `{"user_id":"2","role":"USER"}`), ShouldBeNil)
		So(mr.Set("session:bad-role", `{"user_id":"3","role":"ROOT"}`), ShouldBeNil)
		So(mr.Set("session:garbage", `not json`), ShouldBeNil)

		Convey("When the cookie carries an admin token", func() {
			s, err := p.Session(ctx, requestWithCookie("admin-token"))

			Convey("Then the admin session should be returned", func() {
				So(err, ShouldBeNil)
				So(s, ShouldResemble, &session.Session{UserID: "1", Role: session.RoleAdmin})
			})
		})

		Convey("When the token comes as a bearer header", func() {
			r := requestWithCookie("")
			r.Header.Set("Authorization", "Bearer user-token")
			s, err := p.Session(ctx, r)

			Convey("Then the session should be resolved from the header", func() {
				So(err, ShouldBeNil)
				So(s.Role, ShouldEqual, session.RoleUser)
			})
		})

		Convey("When no token is present", func() {
			s, err := p.Session(ctx, requestWithCookie(""))
			So(err, ShouldBeNil)
			So(s, ShouldBeNil)
		})

		Convey("When the token is unknown or expired", func() {
			s, err := p.Session(ctx, requestWithCookie("expired"))
			So(err, ShouldBeNil)
			So(s, ShouldBeNil)
		})

		Convey("When the stored role is not a known role", func() {
			s, err := p.Session(ctx, requestWithCookie("bad-role"))
			So(err, ShouldBeNil)
			So(s, ShouldBeNil)
		})

		Convey("When the stored payload is malformed", func() {
			s, err := p.Session(ctx, requestWithCookie("garbage"))
			So(err, ShouldBeNil)
			So(s, ShouldBeNil)
		})

		Convey("When Redis is down", func() {
			mr.Close()
			s, err := p.Session(ctx, requestWithCookie("admin-token"))

			Convey("Then a backend error should be returned", func() {
				So(s, ShouldBeNil)
				So(errors.Is(err, sessionstore.ErrSessionBackend), ShouldBeTrue)
				So(errors.Is(p.Ping(ctx), sessionstore.ErrSessionBackend), ShouldBeTrue)
			})
		})
	})

	Convey("Given custom cookie and prefix", t, func() {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()
		p := sessionstore.NewRedisProvider(rdb,
			sessionstore.WithCookieName("sid"),
			sessionstore.WithKeyPrefix("auth:sess:"),
		)
		So(mr.Set("auth:sess:abc", `{"user_id":"9","role":"SUPERADMIN"}`), ShouldBeNil)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
		s, err := p.Session(ctx, r)

		So(err, ShouldBeNil)
		So(s.Role, ShouldEqual, session.RoleSuperAdmin)
		So(p.Ping(ctx), ShouldBeNil)
	})
}

func TestAnonymous(t *testing.T) {
	Convey("The anonymous provider should never return a session", t, func() {
		s, err := sessionstore.Anonymous.Session(context.Background(), requestWithCookie("admin-token"))
		So(err, ShouldBeNil)
		So(s, ShouldBeNil)
	})
}

func TestDialRedis(t *testing.T) {
	Convey("Given a running Redis", t, func() {
		mr := miniredis.RunT(t)

		rdb, err := sessionstore.DialRedis(context.Background(), mr.Addr(), "", 0)

		Convey("Then dialing should succeed", func() {
			So(err, ShouldBeNil)
			So(rdb.Close(), ShouldBeNil)
		})
	})

	Convey("Given an unreachable address", t, func() {
		_, err := sessionstore.DialRedis(context.Background(), "127.0.0.1:1", "", 0)
		So(err, ShouldNotBeNil)
	})
}
