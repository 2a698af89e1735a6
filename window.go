package kathy

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"mvdan.cc/xurls/v2"
)

// number of lines replayed when switching to a channel.
const backlogLen = 20

// only links with a scheme, so that "host:port" is left alone.
var urlRegexp = xurls.Strict()

// printLine writes body behind a right-aligned head column, with links
// highlighted.
func (app *App) printLine(head, body string) {
	width := app.cfg.NickColWidth
	head = runewidth.Truncate(head, width, "…")
	head = runewidth.FillLeft(head, width)

	esc := app.term.Escape
	body = urlRegexp.ReplaceAllStringFunc(body, func(url string) string {
		return string(esc.Cyan) + url + string(esc.Reset)
	})

	fmt.Fprintf(app.term, "%s %s\n", head, body)
}
