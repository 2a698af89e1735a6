package kathy

import (
	"fmt"
	"sort"
	"strings"

	"git.sr.ht/~heptal/kathy/irc"
)

type command struct {
	AllowConsole bool
	MinArgs      int
	MaxArgs      int
	Usage        string
	Desc         string
	Handle       func(app *App, buffer string, args []string) error
}

type commandSet map[string]*command

var commands commandSet

func init() {
	commands = commandSet{
		"HELP": {
			AllowConsole: true,
			MaxArgs:      1,
			Usage:        "[command]",
			Desc:         "show the list of commands, or how to use the given one",
			Handle:       commandDoHelp,
		},
		"BUFFER": {
			AllowConsole: true,
			MinArgs:      1,
			MaxArgs:      1,
			Usage:        "<name>",
			Desc:         "switch to the channel whose name contains the given text",
			Handle:       commandDoBuffer,
		},
		"CHANNELS": {
			AllowConsole: true,
			Desc:         "list channels, marking those with unread lines",
			Handle:       commandDoChannels,
		},
		"MSG": {
			AllowConsole: true,
			MinArgs:      2,
			MaxArgs:      2,
			Usage:        "<target> <message>",
			Desc:         "send a message to the given target",
			Handle:       commandDoMsg,
		},
		"NAMES": {
			Desc:   "show the member list of the current channel",
			Handle: commandDoNames,
		},
		"PART": {
			AllowConsole: true,
			MaxArgs:      2,
			Usage:        "[channel] [reason]",
			Desc:         "part a channel",
			Handle:       commandDoPart,
		},
		"QUIT": {
			AllowConsole: true,
			MaxArgs:      1,
			Usage:        "[reason]",
			Desc:         "quit kathy",
			Handle:       commandDoQuit,
		},
	}
}

// noCommand sends content to the active channel.
func noCommand(app *App, buffer, content string) error {
	if buffer == irc.ConsoleChannel {
		return fmt.Errorf("can't send messages to the console")
	}

	app.s.Command("/msg " + buffer + " " + content)
	app.printLine(buffer, app.s.Nick()+": "+content)

	return nil
}

func commandDoHelp(app *App, buffer string, args []string) (err error) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(args) == 0 {
		app.printLine("--", "Available commands:")
	} else {
		app.printLine("--", fmt.Sprintf("Commands that match %q:", strings.ToUpper(args[0])))
	}

	found := false
	for _, name := range names {
		if len(args) != 0 && !strings.Contains(name, strings.ToUpper(args[0])) {
			continue
		}
		cmd := commands[name]
		app.printLine("", fmt.Sprintf("%s %s", name, cmd.Usage))
		app.printLine("", "  "+cmd.Desc)
		found = true
	}
	if !found {
		app.printLine("", fmt.Sprintf("no command matches %q", args[0]))
	}

	app.printLine("", "Other commands are sent to the server, for example /server <host>[:<port>] or /join <channel>.")

	return
}

func commandDoBuffer(app *App, buffer string, args []string) error {
	name := strings.ToLower(args[0])
	for _, c := range app.s.Channels() {
		if strings.Contains(strings.ToLower(c.Name), name) {
			app.switchBuffer(c.Name)
			return nil
		}
	}

	return fmt.Errorf("none of the channels match %q", args[0])
}

func commandDoChannels(app *App, buffer string, args []string) (err error) {
	for _, c := range app.s.Channels() {
		mark := " "
		if c.Name == buffer {
			mark = ">"
		} else if app.isUnread(c.Name) {
			mark = "*"
		}
		app.printLine("--", mark+" "+c.Name)
	}
	return
}

func commandDoMsg(app *App, buffer string, args []string) (err error) {
	target := args[0]
	content := args[1]

	app.s.Command("/msg " + target + " " + content)
	app.printLine(target, app.s.Nick()+": "+content)

	return
}

func commandDoNames(app *App, buffer string, args []string) (err error) {
	users := app.s.Users(buffer)
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.String()
	}

	app.printLine(buffer, "Names: "+strings.Join(names, " "))

	return
}

func commandDoPart(app *App, buffer string, args []string) (err error) {
	channel := buffer
	reason := ""
	if 0 < len(args) {
		if strings.IndexAny(args[0], "#&") == 0 {
			channel = args[0]
			if 1 < len(args) {
				reason = args[1]
			}
		} else {
			reason = strings.Join(args, " ")
		}
	}

	if channel == irc.ConsoleChannel {
		return fmt.Errorf("cannot part the console")
	}

	if reason == "" {
		app.s.Command("/PART " + channel)
	} else {
		app.s.Command("/PART " + channel + " :" + reason)
	}

	return
}

func commandDoQuit(app *App, buffer string, args []string) (err error) {
	if app.s.State() >= irc.Connected {
		if 0 < len(args) {
			app.s.Command("/QUIT :" + args[0])
		} else {
			app.s.Command("/QUIT")
		}
	}
	app.Exit()
	return
}

func fieldsN(s string, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" || n == 0 {
		return nil
	}
	if n == 1 {
		return []string{s}
	}
	n--
	// Start of the ASCII fast path.
	var a []string
	na := 0
	fieldStart := 0
	i := 0
	// Skip spaces in front of the input.
	for i < len(s) && s[i] == ' ' {
		i++
	}
	fieldStart = i
	for i < len(s) {
		if s[i] != ' ' {
			i++
			continue
		}
		a = append(a, s[fieldStart:i])
		na++
		i++
		// Skip spaces in between fields.
		for i < len(s) && s[i] == ' ' {
			i++
		}
		fieldStart = i
		if n <= na {
			a = append(a, s[fieldStart:])
			return a
		}
	}
	if fieldStart < len(s) {
		// Last field ends at EOF.
		a = append(a, s[fieldStart:])
	}
	return a
}

func parseCommand(s string) (command, args string, isCommand bool) {
	if s[0] != '/' {
		return "", s, false
	}
	if 1 < len(s) && s[1] == '/' {
		// Input starts with two slashes.
		return "", s[1:], false
	}

	i := strings.IndexByte(s, ' ')
	if i < 0 {
		i = len(s)
	}

	isCommand = true
	command = strings.ToUpper(s[1:i])
	args = strings.TrimLeft(s[i:], " ")
	return
}

// handleInput runs a local command, hands other commands to the session, and
// sends anything else to the active channel.
func (app *App) handleInput(content string) error {
	if content == "" {
		return nil
	}

	buffer := app.CurrentBuffer()

	cmdName, rawArgs, isCommand := parseCommand(content)
	if !isCommand {
		return noCommand(app, buffer, rawArgs)
	}
	if cmdName == "" {
		return fmt.Errorf("lone slash at the begining")
	}

	cmd, ok := commands[cmdName]
	if !ok {
		app.s.Command(content)
		return nil
	}

	var args []string
	if rawArgs != "" && cmd.MaxArgs != 0 {
		args = fieldsN(rawArgs, cmd.MaxArgs)
	}

	if len(args) < cmd.MinArgs {
		return fmt.Errorf("usage: %s %s", cmdName, cmd.Usage)
	}
	if buffer == irc.ConsoleChannel && !cmd.AllowConsole {
		return fmt.Errorf("command %q cannot be executed from the console", cmdName)
	}

	return cmd.Handle(app, buffer, args)
}
