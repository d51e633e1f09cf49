// Package assets holds the compiled-in static payloads: the stylesheet, the
// PWA manifest and icons, the robots policy and the favicon. Payloads are
// embedded at build time and immutable for the process lifetime.
package assets

import (
	"embed"
	"fmt"
	"net/http"
	"strconv"
)

//go:embed static
var embedded embed.FS

// longLivedCache marks payloads that never change between releases as
// publicly cacheable.
const longLivedCache = "public, max-age=1209600, s-maxage=86400"

// Asset is one fixed static payload with its route and response headers.
type Asset struct {
	Route        string
	ContentType  string
	CacheControl string

	body []byte
}

func (a Asset) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", a.ContentType)
	if a.CacheControl != "" {
		w.Header().Set("Cache-Control", a.CacheControl)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(a.body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(a.body)
	}
}

// Body exposes the raw payload, mainly for tests.
func (a Asset) Body() []byte { return a.body }

var all = []Asset{
	{Route: "/style.css/", ContentType: "text/css; charset=utf-8", body: mustRead("style.css")},
	{Route: "/favicon.ico/", ContentType: "image/x-icon", CacheControl: longLivedCache, body: mustRead("favicon.ico")},
	{Route: "/robots.txt/", ContentType: "text/plain; charset=utf-8", CacheControl: longLivedCache, body: mustRead("robots.txt")},
	{Route: "/manifest.json/", ContentType: "application/json", body: mustRead("manifest.json")},
	{Route: "/logo.png/", ContentType: "image/png", body: mustRead("logo.png")},
	{Route: "/touch-icon-iphone.png/", ContentType: "image/png", body: mustRead("touch-icon-iphone.png")},
}

// All returns every asset in registration order.
func All() []Asset {
	out := make([]Asset, len(all))
	copy(out, all)
	return out
}

func mustRead(name string) []byte {
	b, err := embedded.ReadFile("static/" + name)
	if err != nil {
		panic(fmt.Errorf("assets: embedded file %s: %w", name, err))
	}
	return b
}
