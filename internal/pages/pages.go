// Package pages renders the HTML the gateway produces itself: the error
// page and the placeholder endpoints standing in for the upstream-backed
// handlers. Everything is a fixed shell around escaped request parameters;
// no template engine, no upstream I/O.
package pages

import (
	"fmt"
	"html"
	"net/http"
)

const shell = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>%s</title>
	<link rel="stylesheet" href="/style.css/">
	<link rel="manifest" href="/manifest.json/">
	<link rel="icon" href="/favicon.ico/">
	<link rel="apple-touch-icon" href="/touch-icon-iphone.png/">
</head>
<body>
	<nav><a id="logo" href="/">redmirror</a></nav>
	<main>
%s	</main>
	<footer>served by redmirror</footer>
</body>
</html>
`

func render(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, shell, html.EscapeString(title), body)
}

// ErrorPage writes the fixed error shell. Callers pass a short plain
// message; it is escaped here.
func ErrorPage(w http.ResponseWriter, status int, message string) {
	msg := html.EscapeString(message)
	body := fmt.Sprintf("\t\t<div class=\"panel error\">\n\t\t\t<h1>%d</h1>\n\t\t\t<p>%s</p>\n\t\t</div>\n", status, msg)
	render(w, status, message, body)
}

// NotFound is the default responder for unmatched routes.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorPage(w, http.StatusNotFound, "Nothing here")
	})
}
