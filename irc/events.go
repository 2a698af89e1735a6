package irc

// Delegate receives the events of a Session.  Its methods are called from the
// session goroutine, one at a time, and must not call back into the blocking
// accessors of the Session (Channel, Channels, Users, Nick, State, Select).
type Delegate interface {
	// OnMessage is called when text is appended to the active channel.
	OnMessage(channel, text string)
	// OnUnread is called when text is appended to a background channel other
	// than the console.
	OnUnread(channel string)
	// OnBroadcast is called when text has been appended to every channel,
	// for connection announcements.
	OnBroadcast(text string)
	OnError(err error)
	// OnRosterChanged is called when the member list of a channel changed.
	OnRosterChanged(channel string)
}

// State is the connection state of a Session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected     // the transport is up, identity not sent yet.
	Authenticated // PASS/NICK/USER have been sent.
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
