package irc

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"io"
	"log"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

const (
	DefaultPort = 6697 // also the port on which TLS is used.

	chanCapacity  = 64
	writeTimeout  = 30 * time.Second
	maxLineLength = 16 * 1024
)

var crlf = []byte("\r\n")

// ConnHandler receives the events of a Conn.  Methods are called from the
// goroutine that owns the socket.
type ConnHandler interface {
	OnConnected(host string, port int)
	OnSecured()
	OnDisconnected(err error)
	OnLineRead(line []byte)
}

// Transport is what a Session needs from a connection.
type Transport interface {
	// Connect starts connecting in the background.  Failures are reported
	// through OnDisconnected.
	Connect(host string, port int)
	Send(line []byte) error
	Close() error
}

type DialFunc func(network, addr string) (net.Conn, error)

// ProxyDialer returns a DialFunc that goes through the proxy at rawURL (for
// example "socks5://localhost:9050"), or through the proxy named by the
// ALL_PROXY and NO_PROXY environment variables if rawURL is empty.
func ProxyDialer(rawURL string) (DialFunc, error) {
	if rawURL == "" {
		return proxy.FromEnvironment().Dial, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, err
	}

	return d.Dial, nil
}

// Conn is a Transport over TCP, with TLS on DefaultPort.  Lines are read on a
// dedicated goroutine and written by another one, in order.
//
// The exported fields must be set before Connect.
type Conn struct {
	// TLSConfig is used on DefaultPort.  ServerName defaults to the host and
	// NextProtos to "irc".
	TLSConfig    *tls.Config
	WriteTimeout time.Duration
	Logger       *log.Logger // reports dropped lines.

	handler ConnHandler
	dial    DialFunc

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	l        sync.Mutex
	conn     net.Conn
	writeErr error
}

func NewConn(handler ConnHandler, dial DialFunc) *Conn {
	if dial == nil {
		dial = net.Dial
	}
	return &Conn{
		WriteTimeout: writeTimeout,
		Logger:       log.New(io.Discard, "", 0),
		handler:      handler,
		dial:         dial,
		out:          make(chan []byte, chanCapacity),
		done:         make(chan struct{}),
	}
}

func (c *Conn) Connect(host string, port int) {
	go c.run(host, port)
}

func (c *Conn) run(host string, port int) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := c.dial("tcp", addr)
	if err != nil {
		c.handler.OnDisconnected(&TransportError{Op: "dial", Addr: addr, Err: err})
		return
	}

	secure := port == DefaultPort
	if secure {
		tlsConn := tls.Client(conn, c.tlsConfig(host))
		err = tlsConn.Handshake()
		if err != nil {
			conn.Close()
			c.handler.OnDisconnected(&TransportError{Op: "tls", Addr: addr, Err: err})
			return
		}
		conn = tlsConn
	}

	if !c.attach(conn) {
		conn.Close()
		return
	}

	c.handler.OnConnected(host, port)
	if secure {
		c.handler.OnSecured()
	}

	go c.writeLoop(conn)
	err = c.readLoop(conn)
	c.Close()

	c.l.Lock()
	if c.writeErr != nil {
		err = c.writeErr
	} else {
		err = &TransportError{Op: "read", Addr: addr, Err: err}
	}
	c.l.Unlock()

	c.handler.OnDisconnected(err)
}

func (c *Conn) tlsConfig(host string) *tls.Config {
	var config *tls.Config
	if c.TLSConfig != nil {
		config = c.TLSConfig.Clone()
	} else {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		config.ServerName = host
	}
	if len(config.NextProtos) == 0 {
		config.NextProtos = []string{"irc"}
	}
	return config
}

// attach records conn as the live socket, unless Close was called while
// dialing.
func (c *Conn) attach(conn net.Conn) bool {
	c.l.Lock()
	defer c.l.Unlock()

	select {
	case <-c.done:
		return false
	default:
	}
	c.conn = conn

	return true
}

// readLoop hands CRLF-terminated lines to the handler one at a time, until
// the connection fails.  A lone LF does not end a line.  Lines longer than
// maxLineLength are dropped.  It never returns nil.
func (c *Conn) readLoop(conn net.Conn) error {
	r := bufio.NewReader(conn)

	var line []byte
	dropped := 0
	for {
		chunk, err := r.ReadSlice('\n')
		if err != nil && err != bufio.ErrBufferFull {
			if len(line) != 0 && dropped == 0 {
				c.handler.OnLineRead(line)
			}
			return err
		}

		line = append(line, chunk...)
		if !bytes.HasSuffix(line, crlf) {
			if maxLineLength < len(line) {
				// the last byte may be the CR of the terminator.
				dropped += len(line) - 1
				line = append(line[:0], line[len(line)-1])
			}
			continue
		}

		if dropped != 0 || maxLineLength < len(line) {
			c.Logger.Printf("dropping a line of %d bytes", dropped+len(line))
		} else {
			c.handler.OnLineRead(line)
		}
		line = nil
		dropped = 0
	}
}

func (c *Conn) writeLoop(conn net.Conn) {
	for {
		select {
		case line := <-c.out:
			_ = conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
			_, err := conn.Write(line)
			if err != nil {
				c.l.Lock()
				if c.writeErr == nil {
					c.writeErr = &TransportError{Op: "write", Addr: conn.RemoteAddr().String(), Err: err}
				}
				c.l.Unlock()
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send queues line for writing.  It fails once the connection is closed.
func (c *Conn) Send(line []byte) error {
	select {
	case <-c.done:
		return &TransportError{Op: "write", Err: net.ErrClosed}
	default:
	}

	select {
	case c.out <- line:
		return nil
	case <-c.done:
		return &TransportError{Op: "write", Err: net.ErrClosed}
	}
}

func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		close(c.done)

		c.l.Lock()
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.l.Unlock()
	})
	return
}
