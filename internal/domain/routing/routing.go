// Package routing classifies request paths for the front middleware.
//
// The classification is advisory. The middleware that consults it lets every
// request through; access control happens per route.
package routing

import "strings"

var publicPaths = map[string]struct{}{
	"/":            {},
	"/login":       {},
	"/register":    {},
	"/about":       {},
	"/contact":     {},
	"/favicon.ico": {},
}

var publicPrefixes = []string{
	"/_next",
	"/api/auth",
	"/static",
	"/assets",
	"/public",
}

// matcherExclusions are never routed through the middleware at all.
var matcherExclusions = []string{
	"/_next/static",
	"/_next/image",
	"/favicon.ico",
}

// ShouldBypassAuth reports whether path is public: an allow-listed page,
// asset or auth endpoint, or anything that looks like a static file.
func ShouldBypassAuth(path string) bool {
	if _, ok := publicPaths[path]; ok {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return strings.Contains(path, ".")
}

// Intercepts reports whether the middleware should see a request for path.
func Intercepts(path string) bool {
	for _, p := range matcherExclusions {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}
