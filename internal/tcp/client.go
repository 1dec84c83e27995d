package tcp

import (
	"net"
	"time"
)

// Client reads from the connection into a single reusable buffer, setting the
// read deadline before every read. Data, which wasn't consumed, can be returned
// back, so the next read returns it instead of touching the socket.
type Client struct {
	conn    net.Conn
	buff    []byte
	pending []byte
	timeout time.Duration
}

func NewClient(conn net.Conn, timeout time.Duration, buff []byte) *Client {
	return &Client{
		buff:    buff,
		conn:    conn,
		timeout: timeout,
	}
}

// Read returns the pending data, if any, otherwise reads from the connection. The
// returned slice is valid only until the next call.
func (c *Client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	n, err := c.conn.Read(c.buff)

	return c.buff[:n], err
}

func (c *Client) Unread(b []byte) {
	c.pending = b
}

// Pending reports whether there is data returned by Unread, which was not read yet.
func (c *Client) Pending() bool {
	return len(c.pending) > 0
}

func (c *Client) Conn() net.Conn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}
