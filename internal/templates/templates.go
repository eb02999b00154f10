// Package templates embeds the HTML used for emails and the staff pages.
package templates

import "embed"

//go:embed *.html
var FS embed.FS

const (
	DailyDigest = "daily_digest.html"
	Layout      = "layout.html"
	Liste       = "liste.html"
	Kanban      = "kanban.html"
	Planning    = "planning.html"
)
