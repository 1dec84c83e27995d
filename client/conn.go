package client

import (
	"errors"
	"io"
	"log"
	"net"
	"time"

	"github.com/indigo-web/hresp/config"
	"github.com/indigo-web/hresp/http/status"
	"github.com/indigo-web/hresp/internal/tcp"
)

// Conn pumps bytes from the network connection into responses. Bytes left after
// a response is complete are kept for the next one.
type Conn struct {
	client    *tcp.Client
	idleSince time.Time
}

func NewConn(conn net.Conn, cfg *config.Config) *Conn {
	defaults := config.Default()

	bufferSize := cfg.NET.ReadBufferSize
	if bufferSize <= 0 {
		log.Printf(
			"misconfiguration: read buffer size must be positive, got %d. Falling back to %d",
			bufferSize, defaults.NET.ReadBufferSize,
		)
		bufferSize = defaults.NET.ReadBufferSize
	}

	timeout := cfg.NET.ReadTimeout
	if timeout <= 0 {
		log.Printf(
			"misconfiguration: read timeout must be positive, got %s. Falling back to %s",
			timeout, defaults.NET.ReadTimeout,
		)
		timeout = defaults.NET.ReadTimeout
	}

	return &Conn{
		client: tcp.NewClient(conn, timeout, make([]byte, bufferSize)),
	}
}

// Receive feeds the response until it's complete. Interim (1xx) responses, except
// 101 Switching Protocols, are skipped, so the response holds the final one once
// Receive returns.
//
// If the peer closes the connection in the middle, the response is notified about it,
// which is also how close-delimited bodies get complete.
func (c *Conn) Receive(resp *Response) error {
	for {
		data, err := c.client.Read()
		if len(data) > 0 {
			n, ferr := resp.Feed(data)
			if ferr != nil {
				return ferr
			}

			if n < len(data) {
				c.client.Unread(data[n:])
			}

			if resp.IsComplete() {
				if status.Informational(resp.Code()) && !resp.Upgraded() {
					resp.Reset()
					continue
				}

				return nil
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return resp.EOF()
		default:
			return err
		}
	}
}

// NetConn returns the underlying connection. After an upgrade, Buffered must be read
// before it, as it already may contain data of the new protocol.
func (c *Conn) NetConn() net.Conn {
	return c.client.Conn()
}

// Buffered returns data received, but not consumed by any response yet.
func (c *Conn) Buffered() []byte {
	if !c.client.Pending() {
		return nil
	}

	data, _ := c.client.Read()
	c.client.Unread(data)

	return data
}

func (c *Conn) Close() error {
	return c.client.Close()
}
