package irc

import (
	"sort"
	"strings"
	"sync"
)

// ConsoleChannel is the name of the channel that receives every raw line and
// connection announcements.  It always exists and is never left.
const ConsoleChannel = "Server Console"

// mode glyphs a server may put in front of a nick in NAMES replies.
const modeGlyphs = "~&@%+"

// User is a member of a channel.  Two users are the same if they have the same
// name; the mode is only used for display.
type User struct {
	Name string
	Mode string // "@", "+", ... or "" for regular members.
}

// NewUser builds a User from a nick token, splitting off a leading mode
// glyph.
func NewUser(token string) User {
	if token != "" && strings.IndexByte(modeGlyphs, token[0]) >= 0 {
		return User{Name: token[1:], Mode: token[:1]}
	}
	return User{Name: token}
}

func (u User) String() string {
	return u.Mode + u.Name
}

// Channel is a conversation: a real channel, a query with another user, or the
// console.  Its log only grows.
type Channel struct {
	Name string

	l     sync.RWMutex
	users map[string]User
	log   []string
}

func NewChannel(name string) *Channel {
	return &Channel{
		Name:  name,
		users: map[string]User{},
	}
}

// Add inserts u in the roster, replacing the mode of a member of the same
// name.
func (c *Channel) Add(u User) {
	c.l.Lock()
	c.users[u.Name] = u
	c.l.Unlock()
}

func (c *Channel) Remove(name string) (u User, ok bool) {
	c.l.Lock()
	defer c.l.Unlock()

	u, ok = c.users[name]
	delete(c.users, name)

	return
}

func (c *Channel) Has(name string) bool {
	c.l.RLock()
	defer c.l.RUnlock()

	_, ok := c.users[name]
	return ok
}

// Users returns the roster sorted by name.
func (c *Channel) Users() []User {
	c.l.RLock()
	users := make([]User, 0, len(c.users))
	for _, u := range c.users {
		users = append(users, u)
	}
	c.l.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})

	return users
}

func (c *Channel) Append(line string) {
	c.l.Lock()
	c.log = append(c.log, line)
	c.l.Unlock()
}

// Log returns a copy of the lines appended so far, oldest first.
func (c *Channel) Log() []string {
	c.l.RLock()
	defer c.l.RUnlock()

	log := make([]string, len(c.log))
	copy(log, c.log)

	return log
}
