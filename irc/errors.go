package irc

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedLine = errors.New("malformed line: no command")
	ErrNoNickname    = errors.New("no nickname configured")
	ErrNotConnected  = errors.New("not connected")
)

// TransportError reports a failure of the connection: dialing, the TLS
// handshake, a write or the read loop.  None of them is retried.
type TransportError struct {
	Op   string // "dial", "tls", "write" or "read".
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
