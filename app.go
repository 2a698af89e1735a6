package kathy

import (
	"fmt"
	"io"
	"log"
	"sync"

	"git.sr.ht/~heptal/kathy/irc"
	"golang.org/x/term"
)

const welcome = "Welcome to Kathy"

// App is a line-mode front end to an irc.Session.  It shows the active channel
// and announces activity on the others.
type App struct {
	cfg  Config
	term *term.Terminal
	s    *irc.Session

	l      sync.Mutex
	active string              // channel shown to the user.
	unread map[string]struct{} // channels with lines the user has not seen.
	exit   bool
}

// NewApp connects the user interface on rw (usually a terminal in raw mode) to
// a new session configured by cfg.
func NewApp(cfg Config, rw io.ReadWriter) (app *App, err error) {
	return newApp(cfg, rw, irc.SessionParams{})
}

func newApp(cfg Config, rw io.ReadWriter, params irc.SessionParams) (app *App, err error) {
	if cfg.NickColWidth <= 0 {
		cfg.NickColWidth = 16
	}

	app = &App{
		cfg:    cfg,
		term:   term.NewTerminal(rw, "> "),
		active: irc.ConsoleChannel,
		unread: map[string]struct{}{},
	}
	app.term.AutoCompleteCallback = app.autoComplete

	if params.Transport == nil && params.Dial == nil {
		params.Dial, err = irc.ProxyDialer(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy: %w", err)
		}
	}

	if cfg.Transcript != "-" {
		path := cfg.Transcript
		if path == "" {
			path, err = irc.DefaultTranscriptPath()
			if err != nil {
				return nil, err
			}
		}
		params.Transcript = irc.NewTranscript(path)
	}

	if cfg.Debug {
		params.Logger = log.New(app.term, "debug: ", log.Ltime)
	}

	params.Nickname = cfg.Nick
	params.Username = cfg.User
	params.RealName = cfg.Real
	params.Password = cfg.Password
	params.Invisible = cfg.Invisible
	params.DefaultHost = cfg.Host
	params.AutoConnect = cfg.AutoConnect
	params.Notifier = app

	app.printLine("--", welcome)
	app.s = irc.NewSession(app, params)
	app.updatePrompt()

	return
}

func (app *App) Close() {
	app.s.Close()
}

// Run reads user input until the end of input or /quit.
func (app *App) Run() error {
	for !app.exiting() {
		line, err := app.term.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		err = app.handleInput(line)
		if err != nil {
			app.printLine("!!", fmt.Sprintf("%q: %s", line, err))
		}
	}
	return nil
}

func (app *App) exiting() bool {
	app.l.Lock()
	defer app.l.Unlock()
	return app.exit
}

func (app *App) Exit() {
	app.l.Lock()
	app.exit = true
	app.l.Unlock()
}

// CurrentBuffer is the name of the active channel.
func (app *App) CurrentBuffer() string {
	app.l.Lock()
	defer app.l.Unlock()
	return app.active
}

func (app *App) isUnread(channel string) bool {
	app.l.Lock()
	defer app.l.Unlock()
	_, ok := app.unread[channel]
	return ok
}

// switchBuffer makes channel the active one and replays the end of its log.
func (app *App) switchBuffer(channel string) {
	app.s.Select(channel)

	app.l.Lock()
	app.active = channel
	delete(app.unread, channel)
	app.l.Unlock()

	lines := app.s.Channel(channel).Log()
	if backlogLen < len(lines) {
		lines = lines[len(lines)-backlogLen:]
	}
	app.printLine("--", "Now talking on "+channel)
	for _, line := range lines {
		app.printLine(channel, line)
	}
	app.updatePrompt()
}

func (app *App) updatePrompt() {
	active := app.CurrentBuffer()
	if active == irc.ConsoleChannel {
		app.term.SetPrompt("> ")
		return
	}
	app.term.SetPrompt(fmt.Sprintf("%s (%d)> ", active, len(app.s.Users(active))))
}

// The methods below implement irc.Delegate and irc.Notifier.  They run on the
// session goroutine.

func (app *App) OnMessage(channel, text string) {
	app.printLine(channel, text)
}

func (app *App) OnUnread(channel string) {
	app.l.Lock()
	_, seen := app.unread[channel]
	app.unread[channel] = struct{}{}
	app.l.Unlock()

	if !seen {
		app.printLine("--", "New activity on "+channel)
	}
}

func (app *App) OnBroadcast(text string) {
	app.printLine("--", text)
}

func (app *App) OnError(err error) {
	app.printLine("!!", err.Error())
}

func (app *App) OnRosterChanged(channel string) {
	if channel == app.CurrentBuffer() {
		// the session goroutine cannot wait on itself.
		go app.updatePrompt()
	}
}

func (app *App) Notify(title, body string) {
	app.term.Write([]byte("\a"))
	app.printLine("**", title+": "+body)
}
