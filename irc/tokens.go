package irc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

func word(s string) (w, rest string) {
	split := strings.SplitN(s, " ", 2)

	if len(split) < 2 {
		w = split[0]
		rest = ""
	} else {
		w = split[0]
		rest = split[1]
	}

	return
}

// field is like word, but skips the spaces around the returned word.
func field(s string) (w, rest string) {
	w, rest = word(strings.TrimLeft(s, " "))
	rest = strings.TrimLeft(rest, " ")
	return
}

// Prefix is the source of a message, either "nick!user@host" or a bare
// server name.
type Prefix struct {
	Nick *string // nil unless the prefix has the nick!user@host shape.
	User *string
	Host string
	Raw  string // the prefix as received, leading colon included.
}

// ParsePrefix decodes a ":nick!user@host" or ":servername" token.  It returns
// nil if s carries no colon.
func ParsePrefix(s string) *Prefix {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return nil
	}

	p := &Prefix{Raw: s}
	rest := s[i+1:]

	bang := strings.IndexByte(rest, '!')
	at := strings.IndexByte(rest, '@')
	if 0 <= bang && bang < at {
		nick := rest[:bang]
		user := rest[bang+1 : at]
		p.Nick = &nick
		p.User = &user
		rest = rest[at+1:]
	}
	p.Host = rest

	return p
}

// Name returns the nickname of the prefix, or "" if it has none.
func (p *Prefix) Name() string {
	if p == nil || p.Nick == nil {
		return ""
	}
	return *p.Nick
}

// Message is a single protocol line.  Params is left un-split: handlers pick
// it apart with the sub-grammar of their command.
type Message struct {
	Prefix    *Prefix
	Command   string
	Params    string
	HasParams bool   // whether the line had anything after the command.
	Raw       string // the exact line, terminator included.
}

// Decode parses a received line.  Lines that are not valid UTF-8 are read as
// ISO-8859-1.
func Decode(raw []byte) (msg Message, err error) {
	var line string
	if utf8.Valid(raw) {
		line = string(raw)
	} else {
		decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		line = string(decoded)
	}
	msg.Raw = line
	line = strings.TrimSuffix(line, "\r\n")

	var prefix *Prefix
	if strings.HasPrefix(line, ":") {
		var token string

		token, line = word(line)
		prefix = ParsePrefix(token)
	}

	if i := strings.IndexByte(line, ' '); 0 <= i {
		msg.Command = line[:i]
		msg.Params = line[i+1:]
		msg.HasParams = true
	} else {
		msg.Command = line
	}

	if msg.Command == "" {
		err = ErrMalformedLine
		return
	}

	// servers echo our own MODE changes with prefixes we do not track.
	if msg.Command != "MODE" {
		msg.Prefix = prefix
	}

	return
}

// Encode builds an outgoing message.  The command is upper-cased and an empty
// params string is left out of the line.
func Encode(command, params string) Message {
	msg := Message{
		Command:   strings.ToUpper(command),
		Params:    params,
		HasParams: params != "",
	}

	if msg.HasParams {
		msg.Raw = msg.Command + " " + msg.Params + "\r\n"
	} else {
		msg.Raw = msg.Command + "\r\n"
	}

	return msg
}

func NewMessage(command string) Message {
	return Encode(command, "")
}

// Bytes returns the line as sent on the wire.
func (msg Message) Bytes() []byte {
	return []byte(msg.Raw)
}

// String returns the line without its terminator.
func (msg Message) String() string {
	return strings.TrimSuffix(msg.Raw, "\r\n")
}

// ParseTargetText splits "<target>[ :]<text>", the shape of PRIVMSG, JOIN,
// PART and TOPIC parameters.  A params string that is entirely a trailing
// field (":#channel") is read as the target.
func ParseTargetText(params string) (target, text string, ok bool) {
	params = strings.TrimLeft(params, " ")
	if strings.HasPrefix(params, ":") {
		target = strings.TrimRight(params[1:], " ")
		ok = target != ""
		return
	}

	target, text = field(params)
	text = strings.TrimPrefix(text, ":")
	ok = target != ""

	return
}

// ParseChannelText splits "<client> <channel>[ :]<text>", the shape of
// RPL_TOPIC and RPL_ENDOFNAMES parameters.
func ParseChannelText(params string) (channel, text string, ok bool) {
	client, rest := field(params)
	if client == "" {
		return
	}

	channel, text = field(rest)
	text = strings.TrimPrefix(text, ":")
	ok = channel != "" && !strings.HasPrefix(channel, ":")

	return
}

// ParseNamesReply splits an RPL_NAMREPLY parameter string,
// "<client> <@|=|*> <channel> :<nick1> <nick2> ...".  Nicks keep their mode
// glyph.
func ParseNamesReply(params string) (channel string, nicks []string, ok bool) {
	client, rest := field(params)
	chanType, rest := field(rest)
	channel, rest = field(rest)

	if client == "" || channel == "" {
		return
	}
	if chanType != "@" && chanType != "=" && chanType != "*" {
		return
	}

	nicks = strings.Fields(strings.TrimPrefix(rest, ":"))
	ok = true

	return
}
