package pages

import (
	"fmt"
	"html"
	"net/http"

	"github.com/redmirror/redmirror/internal/router"
)

// The placeholder endpoints keep the route table honest while the upstream
// client is out of scope: each echoes its matched parameters in the page
// shell so routing behavior is visible end to end.

func panel(title, meta string) string {
	return fmt.Sprintf("\t\t<div class=\"panel\">\n\t\t\t<h1>%s</h1>\n\t\t\t<p class=\"meta\">%s</p>\n\t\t</div>\n",
		html.EscapeString(title), html.EscapeString(meta))
}

// FrontPage serves / and /{sort}/.
func FrontPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sort := router.Param(r.Context(), "sort")
		if sort == "" {
			sort = "hot"
		}
		render(w, http.StatusOK, "redmirror", panel("Popular posts", "sorted by "+sort))
	})
}

// Subreddit serves /r/{sub}/ and /r/{sub}/{sort}/.
func Subreddit() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := router.Param(r.Context(), "sub")
		sort := router.Param(r.Context(), "sort")
		if sort == "" {
			sort = "hot"
		}
		render(w, http.StatusOK, "r/"+sub, panel("r/"+sub, "sorted by "+sort))
	})
}

// Post serves comment pages and short links.
func Post() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := router.Param(ctx, "id")
		meta := "post " + id
		if sub := router.Param(ctx, "sub"); sub != "" {
			meta += " in r/" + sub
		}
		if user := router.Param(ctx, "username"); user != "" {
			meta += " by u/" + user
		}
		if comment := router.Param(ctx, "comment_id"); comment != "" {
			meta += ", comment " + comment
		}
		title := router.Param(ctx, "title")
		if title == "" {
			title = id
		}
		render(w, http.StatusOK, title, panel(title, meta))
	})
}

// UserProfile serves /user/{username}/ and /u/{username}/.
func UserProfile() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := router.Param(r.Context(), "username")
		render(w, http.StatusOK, "u/"+user, panel("u/"+user, "overview"))
	})
}

// Search serves /search/ and /r/{sub}/search/.
func Search() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		meta := "results for " + q
		if sub := router.Param(r.Context(), "sub"); sub != "" {
			meta += " in r/" + sub
		}
		render(w, http.StatusOK, "search", panel("Search", meta))
	})
}

// Wiki serves /wiki/, /wiki/{page}/ and the subreddit wiki routes.
func Wiki() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		page := router.Param(ctx, "page")
		if page == "" {
			page = "index"
		}
		title := "wiki: " + page
		meta := "wiki page " + page
		if sub := router.Param(ctx, "sub"); sub != "" {
			meta += " of r/" + sub
		}
		render(w, http.StatusOK, title, panel(title, meta))
	})
}

// SettingsShow serves GET /settings/.
func SettingsShow() http.Handler {
	const form = `		<div class="panel">
			<h1>Settings</h1>
			<form method="post" action="/settings/">
				<div class="field"><label for="theme">Theme</label>
				<select id="theme" name="theme"><option>dark</option><option>light</option></select></div>
				<div class="field"><label for="front_page">Front page</label>
				<select id="front_page" name="front_page"><option>popular</option><option>all</option></select></div>
				<button>Save</button>
			</form>
		</div>
`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, "settings", form)
	})
}

// SettingsUpdate serves POST /settings/ and sends the browser back to the
// form.
func SettingsUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/settings/", http.StatusSeeOther)
	})
}

// Subscriptions serves POST /r/{sub}/{action}/ and returns to the
// subreddit page.
func Subscriptions() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := router.Param(r.Context(), "sub")
		http.Redirect(w, r, "/r/"+sub+"/", http.StatusFound)
	})
}
