package routing_test

import (
	"testing"

	"github.com/okian/bulletin/internal/domain/routing"
	. "github.com/smartystreets/goconvey/convey"
)

func TestShouldBypassAuth(t *testing.T) {
	Convey("Given request paths", t, func() {
		Convey("Public pages and auth endpoints should bypass", func() {
			for _, p := range []string{"/", "/login", "/register", "/about", "/contact", "/api/auth/session", "/api/auth/callback/google", "/_next/data/x.json", "/static/logo", "/assets/app", "/public/terms"} {
				So(routing.ShouldBypassAuth(p), ShouldBeTrue)
			}
		})

		Convey("Paths with a dot should be treated as static files", func() {
			So(routing.ShouldBypassAuth("/robots.txt"), ShouldBeTrue)
			So(routing.ShouldBypassAuth("/images/banner.png"), ShouldBeTrue)
			So(routing.ShouldBypassAuth("/admin/../secret"), ShouldBeTrue)
		})

		Convey("Application pages and APIs should not bypass", func() {
			for _, p := range []string{"/dashboard", "/admin/analytics", "/api/analytics/top-events", "/api/views"} {
				So(routing.ShouldBypassAuth(p), ShouldBeFalse)
			}
		})

		Convey("Exact matches should not act as prefixes", func() {
			So(routing.ShouldBypassAuth("/login-history"), ShouldBeFalse)
			So(routing.ShouldBypassAuth("/about/team"), ShouldBeFalse)
		})
	})
}

func TestIntercepts(t *testing.T) {
	Convey("The matcher should skip framework assets only", t, func() {
		So(routing.Intercepts("/_next/static/chunks/main.js"), ShouldBeFalse)
		So(routing.Intercepts("/_next/image"), ShouldBeFalse)
		So(routing.Intercepts("/favicon.ico"), ShouldBeFalse)
		So(routing.Intercepts("/_next/data/build/page.json"), ShouldBeTrue)
		So(routing.Intercepts("/api/analytics/top-announcements"), ShouldBeTrue)
		So(routing.Intercepts("/"), ShouldBeTrue)
	})
}
