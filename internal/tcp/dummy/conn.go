package dummy

import (
	"io"
	"net"
	"time"
)

var _ net.Conn = new(Conn)

// Conn is a net.Conn, returning the pieces it was initialised with on every read, one
// per call. Once they are over, io.EOF is returned.
type Conn struct {
	pieces   [][]byte
	pointer  int
	Written  []byte
	Closed   bool
	Deadline time.Time
	readErr  error
}

func NewConn(pieces ...[]byte) *Conn {
	return &Conn{
		pieces: pieces,
	}
}

// NewConnString is the same as NewConn, but for strings.
func NewConnString(pieces ...string) *Conn {
	conn := new(Conn)
	for _, piece := range pieces {
		conn.pieces = append(conn.pieces, []byte(piece))
	}

	return conn
}

// FailWith makes the conn return the error instead of io.EOF once the pieces are over.
func (c *Conn) FailWith(err error) *Conn {
	c.readErr = err
	return c
}

func (c *Conn) Read(b []byte) (n int, err error) {
	if c.Closed {
		return 0, net.ErrClosed
	}

	if c.pointer >= len(c.pieces) {
		if c.readErr != nil {
			return 0, c.readErr
		}

		return 0, io.EOF
	}

	piece := c.pieces[c.pointer]
	n = copy(b, piece)
	if n < len(piece) {
		c.pieces[c.pointer] = piece[n:]
	} else {
		c.pointer++
	}

	return n, nil
}

func (c *Conn) Write(b []byte) (n int, err error) {
	c.Written = append(c.Written, b...)
	return len(b), nil
}

func (c *Conn) Close() error {
	c.Closed = true
	return nil
}

func (c *Conn) LocalAddr() net.Addr {
	return nil
}

func (c *Conn) RemoteAddr() net.Addr {
	return nil
}

func (c *Conn) SetDeadline(t time.Time) error {
	c.Deadline = t
	return nil
}

func (c *Conn) SetReadDeadline(t time.Time) error {
	c.Deadline = t
	return nil
}

func (c *Conn) SetWriteDeadline(time.Time) error {
	return nil
}
