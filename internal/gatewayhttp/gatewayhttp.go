// Package gatewayhttp owns the public route table. Registration order is
// load-bearing: the router dispatches to the first pattern that matches, so
// the specific routes are installed before the catch-alls (the front-page
// sort enum before the five-or-six character short link, for example).
package gatewayhttp

import (
	"net/http"

	"github.com/redmirror/redmirror/internal/assets"
	"github.com/redmirror/redmirror/internal/httpmw"
	"github.com/redmirror/redmirror/internal/pages"
	"github.com/redmirror/redmirror/internal/router"
)

// Handlers are the logical endpoints the route table dispatches to. Every
// field must be non-nil; Register panics otherwise, the same as a malformed
// pattern would.
type Handlers struct {
	FrontPage      http.Handler
	Subreddit      http.Handler
	Post           http.Handler
	UserProfile    http.Handler
	Search         http.Handler
	SettingsShow   http.Handler
	SettingsUpdate http.Handler
	Wiki           http.Handler
	Subscriptions  http.Handler
	MediaProxy     http.Handler
}

// Placeholders returns the handler set backed by the built-in pages, with
// the given media proxy. Everything except the proxy renders locally.
func Placeholders(mediaProxy http.Handler) Handlers {
	return Handlers{
		FrontPage:      pages.FrontPage(),
		Subreddit:      pages.Subreddit(),
		Post:           pages.Post(),
		UserProfile:    pages.UserProfile(),
		Search:         pages.Search(),
		SettingsShow:   pages.SettingsShow(),
		SettingsUpdate: pages.SettingsUpdate(),
		Wiki:           pages.Wiki(),
		Subscriptions:  pages.Subscriptions(),
		MediaProxy:     mediaProxy,
	}
}

// Register installs the full public route table on mux.
func Register(mux *router.Mux, h Handlers) {
	// static assets
	for _, a := range assets.All() {
		mux.Get(a.Route, a)
	}

	// Several routes dispatch to one logical endpoint (five shapes reach the
	// post handler); scoped tags the request logger and span with the
	// endpoint name so logs group by what served, not which shape matched.
	frontPage := scoped("frontpage", h.FrontPage)
	subreddit := scoped("subreddit", h.Subreddit)
	post := scoped("post", h.Post)
	userProfile := scoped("user_profile", h.UserProfile)
	search := scoped("search", h.Search)
	settingsShow := scoped("settings_show", h.SettingsShow)
	settingsUpdate := scoped("settings_update", h.SettingsUpdate)
	wiki := scoped("wiki", h.Wiki)
	subscriptions := scoped("subscriptions", h.Subscriptions)
	mediaProxy := scoped("media_proxy", h.MediaProxy)

	// media proxy
	mux.Get("/proxy/{url...}/", mediaProxy)

	// user profiles and their posts
	mux.Get("/{scope:user|u}/{username}/", userProfile)
	mux.Get("/{scope:user|u}/{username}/comments/{id}/{title}/", post)
	mux.Get("/{scope:user|u}/{username}/comments/{id}/{title}/{comment_id}/", post)

	// settings
	mux.Get("/settings/", settingsShow)
	mux.Post("/settings/", settingsUpdate)

	// subreddits
	mux.Get("/r/{sub}/", subreddit)
	mux.Get("/r/{sub}/{sort:hot|new|top|rising|controversial}/", subreddit)
	mux.Post("/r/{sub}/{action:subscribe|unsubscribe}/", subscriptions)
	mux.Get("/r/{sub}/comments/{id}/{title}/", post)
	mux.Get("/r/{sub}/comments/{id}/{title}/{comment_id}/", post)
	mux.Get("/r/{sub}/search/", search)
	mux.Get("/r/{sub}/{scope:wiki|w}/", wiki)
	mux.Get("/r/{sub}/{scope:wiki|w}/{page}/", wiki)

	// front page
	mux.Get("/", frontPage)
	mux.Get("/{sort:best|hot|new|top|rising|controversial}/", frontPage)

	// instance wiki
	mux.Get("/wiki/", wiki)
	mux.Get("/wiki/{page}/", wiki)

	// search
	mux.Get("/search/", search)

	// short post links, after every literal single-segment route
	mux.Get("/{id:5-6}/", post)

	mux.NotFound(pages.NotFound())
}

func scoped(name string, h http.Handler) http.Handler {
	if h == nil {
		panic("gatewayhttp: nil handler for " + name)
	}
	return httpmw.Scope(name)(h)
}
