package irc

import (
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
)

// SessionParams defines who to be on the server and how to get there.
type SessionParams struct {
	Nickname  string
	Username  string // defaults to Nickname.
	RealName  string // defaults to Nickname.
	Password  string // sent with PASS if not empty.
	Invisible bool

	// When AutoConnect is set, NewSession issues "/server DefaultHost".
	DefaultHost string
	AutoConnect bool

	Dial       DialFunc                      // used by the default transport.
	Transport  func(h ConnHandler) Transport // defaults to NewConn.
	Transcript *Transcript                   // optional.
	Notifier   Notifier                      // optional.
	Logger     *log.Logger                   // debug output, optional.
}

// Session is the client state for one server.  All state changes and all
// Delegate calls happen on a single goroutine; the exported methods are safe
// to call from any other goroutine.
type Session struct {
	params     SessionParams
	delegate   Delegate
	notifier   *notifyLimiter
	logger     *log.Logger
	transcript *Transcript

	actions   chan func()
	done      chan struct{}
	closeOnce sync.Once

	// owned by the session goroutine.
	state    State
	nick     string
	channels []*Channel
	byName   map[string]*Channel
	active   string
	conn     Transport
	connGen  int
}

func NewSession(delegate Delegate, params SessionParams) *Session {
	if params.Username == "" {
		params.Username = params.Nickname
	}
	if params.RealName == "" {
		params.RealName = params.Nickname
	}

	logger := params.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if params.Transport == nil {
		dial := params.Dial
		params.Transport = func(h ConnHandler) Transport {
			conn := NewConn(h, dial)
			conn.Logger = logger
			return conn
		}
	}

	s := &Session{
		params:     params,
		delegate:   delegate,
		notifier:   newNotifyLimiter(params.Notifier),
		logger:     logger,
		transcript: params.Transcript,
		actions:    make(chan func(), chanCapacity),
		done:       make(chan struct{}),
		nick:       params.Nickname,
		byName:     map[string]*Channel{},
		active:     ConsoleChannel,
	}
	s.channel(ConsoleChannel)

	go s.loop()

	if params.AutoConnect && params.DefaultHost != "" {
		s.Command("/server " + params.DefaultHost)
	}

	return s
}

func (s *Session) loop() {
	for {
		select {
		case f := <-s.actions:
			f()
		case <-s.done:
			return
		}
	}
}

// post queues f to run on the session goroutine.
func (s *Session) post(f func()) {
	select {
	case s.actions <- f:
	case <-s.done:
	}
}

// do runs f on the session goroutine and waits for it to finish.
func (s *Session) do(f func()) {
	finished := make(chan struct{})
	s.post(func() {
		f()
		close(finished)
	})
	select {
	case <-finished:
	case <-s.done:
	}
}

// Close drops the connection and stops the session goroutine.
func (s *Session) Close() {
	s.do(func() {
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.state = Disconnected
	})
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) Nick() (nick string) {
	s.do(func() {
		nick = s.nick
	})
	return
}

func (s *Session) State() (state State) {
	s.do(func() {
		state = s.state
	})
	return
}

// Channel returns the channel of the given name, creating it if needed.  The
// console is ConsoleChannel.
func (s *Session) Channel(name string) (c *Channel) {
	s.do(func() {
		c = s.channel(name)
	})
	return
}

// Channels returns the channels in the order they were created, console
// first.
func (s *Session) Channels() (channels []*Channel) {
	s.do(func() {
		channels = make([]*Channel, len(s.channels))
		copy(channels, s.channels)
	})
	return
}

// Users returns the sorted member list of a channel, or nil if the channel is
// not known.
func (s *Session) Users(channel string) (users []User) {
	s.do(func() {
		if c, ok := s.byName[channel]; ok {
			users = c.Users()
		}
	})
	return
}

// Select marks the channel shown to the user.  New lines on that channel are
// reported with OnMessage, lines on the others with OnUnread.
func (s *Session) Select(channel string) {
	s.do(func() {
		s.active = s.channel(channel).Name
	})
}

// Command runs a line typed by the user:
//
//	/server <host>[:<port>]   connect, on port 6697 with TLS by default
//	/msg <nick> <text>        send a private message
//	/<command> [params]       send the command as is
func (s *Session) Command(text string) {
	s.post(func() {
		s.command(text)
	})
}

func (s *Session) command(text string) {
	if !strings.HasPrefix(text, "/") {
		return
	}

	cmd, rest := word(text[1:])
	switch strings.ToLower(cmd) {
	case "":
		return
	case "server":
		host, port, err := parseServerAddr(rest)
		if err != nil {
			s.delegate.OnError(err)
			return
		}
		s.connect(host, port)
		return
	case "msg":
		nick, content := field(rest)
		if nick != "" {
			s.command("/PRIVMSG " + nick + " :" + content)
		}
		return
	}

	s.send(Encode(cmd, rest))
}

// parseServerAddr reads "<host>[:<port>]", "[<ipv6>]:<port>" or
// "<host> <port>".  A missing port means DefaultPort.
func parseServerAddr(s string) (host string, port int, err error) {
	s = strings.TrimSpace(s)

	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		host, rawPort = field(s)
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid server address %q: missing host", s)
	}

	if rawPort == "" {
		return host, DefaultPort, nil
	}
	p, err := strconv.ParseUint(strings.TrimSpace(rawPort), 10, 16)
	if err != nil || p == 0 {
		return "", 0, fmt.Errorf("invalid server address %q: bad port %q", s, rawPort)
	}

	return host, int(p), nil
}

func (s *Session) connect(host string, port int) {
	if s.conn != nil {
		s.conn.Close()
	}

	s.connGen++
	s.state = Connecting
	s.conn = s.params.Transport(&connHandler{s: s, gen: s.connGen})
	s.conn.Connect(host, port)
}

func (s *Session) send(msg Message) {
	if s.conn == nil || s.state < Connected {
		s.delegate.OnError(&TransportError{Op: "write", Err: ErrNotConnected})
		return
	}

	s.logger.Printf("OUT %s", msg)
	err := s.conn.Send(msg.Bytes())
	if err != nil {
		s.delegate.OnError(err)
	}
}

// authenticate sends our identity without waiting for the server to
// acknowledge it.
func (s *Session) authenticate() {
	if s.params.Nickname == "" {
		s.send(NewMessage("QUIT"))
		s.delegate.OnError(ErrNoNickname)
		return
	}

	if s.params.Password != "" {
		s.send(Encode("PASS", s.params.Password))
	}
	s.send(Encode("NICK", s.params.Nickname))

	mode := "0"
	if s.params.Invisible {
		mode = "8"
	}
	s.send(Encode("USER", fmt.Sprintf("%s %s * :%s", s.params.Username, mode, s.params.RealName)))

	s.nick = s.params.Nickname
	s.state = Authenticated
}

// channel is the lookup-or-create accessor used by every handler.
func (s *Session) channel(name string) *Channel {
	if c, ok := s.byName[name]; ok {
		return c
	}

	c := NewChannel(name)
	s.byName[name] = c
	s.channels = append(s.channels, c)

	return c
}

func (s *Session) appendMessage(channel, text string) {
	c := s.channel(channel)
	c.Append(text)

	if c.Name == s.active {
		s.delegate.OnMessage(c.Name, text)
	} else if c.Name != ConsoleChannel {
		s.delegate.OnUnread(c.Name)
	}
}

// broadcast appends text to every channel.
func (s *Session) broadcast(text string) {
	for _, c := range s.channels {
		c.Append(text)
	}
	s.delegate.OnBroadcast(text)
}

func (s *Session) handleLine(line []byte) {
	msg, err := Decode(line)
	if err != nil {
		s.logger.Printf("dropping %q: %v", line, err)
		return
	}

	s.logger.Printf("IN  %s", msg)
	if s.transcript != nil {
		err = s.transcript.Append(line)
		if err != nil {
			s.logger.Printf("transcript: %v", err)
		}
	}

	if msg.Command == "PING" {
		// logged, answered, but not worth an event.
		s.channel(ConsoleChannel).Append(msg.String())
		s.send(Encode("PONG", msg.Params))
		return
	}

	s.appendMessage(ConsoleChannel, msg.String())
	s.handleMessage(msg)
}

func (s *Session) handleMessage(msg Message) {
	nick := msg.Prefix.Name()

	switch msg.Command {
	case "NICK":
		newNick := strings.TrimSpace(strings.TrimPrefix(msg.Params, ":"))
		if nick == "" || newNick == "" {
			break
		}

		if s.nick == nick {
			s.nick = newNick
		}

		for _, c := range s.channels {
			u, ok := c.Remove(nick)
			if !ok {
				continue
			}
			u.Name = newNick
			c.Add(u)
			s.appendMessage(c.Name, fmt.Sprintf("%s is now known as %s", nick, newNick))
			s.delegate.OnRosterChanged(c.Name)
		}
	case "PRIVMSG":
		target, text, ok := ParseTargetText(msg.Params)
		if nick == "" || !ok {
			break
		}

		if target == s.nick {
			target = nick
			s.notifier.Notify("Message from "+nick, text)
		}
		s.appendMessage(target, nick+": "+text)
	case "JOIN":
		channel, _, ok := ParseTargetText(msg.Params)
		if nick == "" || !ok {
			break
		}

		if nick == s.nick {
			s.appendMessage(channel, "You have joined the channel")
		} else {
			s.appendMessage(channel, nick+" has joined the channel")
		}
		s.channel(channel).Add(User{Name: nick})
		s.delegate.OnRosterChanged(channel)
	case "PART":
		channel, _, ok := ParseTargetText(msg.Params)
		if nick == "" || !ok {
			break
		}

		if nick == s.nick {
			s.appendMessage(channel, "You have left the channel")
		} else {
			s.appendMessage(channel, nick+" has left the channel")
		}
		s.channel(channel).Remove(nick)
		s.delegate.OnRosterChanged(channel)
	case rplNamreply:
		channel, nicks, ok := ParseNamesReply(msg.Params)
		if !ok {
			break
		}

		c := s.channel(channel)
		for _, n := range nicks {
			c.Add(NewUser(n))
		}
	case rplEndofnames:
		channel, _, ok := ParseChannelText(msg.Params)
		if ok && channel == s.active {
			s.delegate.OnRosterChanged(channel)
		}
	case "TOPIC":
		channel, topic, ok := ParseTargetText(msg.Params)
		if ok {
			s.appendMessage(channel, "Topic changed: "+topic)
		}
	case rplTopic:
		channel, topic, ok := ParseChannelText(msg.Params)
		if ok {
			s.appendMessage(channel, "Topic: "+topic)
		}
	}
}

func (s *Session) onConnected(host string, port int) {
	s.state = Connected
	s.authenticate()
	s.broadcast(fmt.Sprintf("Connected to %s:%d", host, port))
}

func (s *Session) onDisconnected(err error) {
	wasConnecting := s.state == Connecting
	s.state = Disconnected
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	if wasConnecting {
		s.delegate.OnError(err)
	} else {
		s.broadcast(err.Error())
	}
}

// connHandler forwards the events of one connection to the session
// goroutine.  Events of a connection that has since been replaced are
// dropped.
type connHandler struct {
	s   *Session
	gen int
}

func (h *connHandler) run(f func()) {
	h.s.post(func() {
		if h.gen == h.s.connGen && h.s.conn != nil {
			f()
		}
	})
}

func (h *connHandler) OnConnected(host string, port int) {
	h.run(func() {
		h.s.onConnected(host, port)
	})
}

func (h *connHandler) OnSecured() {
	h.run(func() {
		h.s.broadcast("Connection secured")
	})
}

func (h *connHandler) OnDisconnected(err error) {
	h.run(func() {
		h.s.onDisconnected(err)
	})
}

func (h *connHandler) OnLineRead(line []byte) {
	h.run(func() {
		h.s.handleLine(line)
	})
}
