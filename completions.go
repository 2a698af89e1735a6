package kathy

import (
	"strings"
)

// autoComplete completes the nick before the cursor with the members of the
// active channel when tab is pressed.  A nick completed at the start of the
// line is followed by a colon.
func (app *App) autoComplete(line string, pos int, key rune) (newLine string, newPos int, ok bool) {
	if key != '\t' {
		return
	}

	if len(line) < pos {
		return
	}
	text := []rune(line)
	cursorIdx := len([]rune(line[:pos]))

	var start int
	for start = cursorIdx - 1; 0 <= start; start-- {
		if text[start] == ' ' {
			break
		}
	}
	start++
	word := strings.ToLower(string(text[start:cursorIdx]))
	if word == "" {
		return
	}

	for _, u := range app.s.Users(app.CurrentBuffer()) {
		if !strings.HasPrefix(strings.ToLower(u.Name), word) {
			continue
		}

		nickComp := []rune(u.Name)
		if start == 0 {
			nickComp = append(nickComp, ':')
		}
		nickComp = append(nickComp, ' ')

		c := make([]rune, 0, len(text)+len(nickComp)-len(word))
		c = append(c, text[:start]...)
		c = append(c, nickComp...)
		c = append(c, text[cursorIdx:]...)

		newLine = string(c)
		newPos = len(string(c[:start+len(nickComp)]))
		ok = true
		return
	}

	return
}
