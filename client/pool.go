package client

import (
	"log"
	"sync"
	"time"

	"github.com/indigo-web/hresp/config"
)

// Pool keeps idle connections, which are known to be reusable. Whether the connection
// is reusable is decided by the response received on it the last.
type Pool struct {
	mu          sync.Mutex
	idle        []*Conn
	maxIdle     int
	idleTimeout time.Duration
	now         func() time.Time
}

func NewPool(cfg *config.Config) *Pool {
	return &Pool{
		idle:        make([]*Conn, 0, cfg.Pool.MaxIdle),
		maxIdle:     cfg.Pool.MaxIdle,
		idleTimeout: cfg.Pool.IdleTimeout,
		now:         time.Now,
	}
}

// Acquire returns the most recently released connection. Connections staying idle for
// too long are closed on the way. Returns false if no connection is available.
func (p *Pool) Acquire() (*Conn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	for len(p.idle) > 0 {
		conn := p.idle[len(p.idle)-1]
		p.idle[len(p.idle)-1] = nil
		p.idle = p.idle[:len(p.idle)-1]

		if p.idleTimeout > 0 && now.Sub(conn.idleSince) > p.idleTimeout {
			_ = conn.Close()
			continue
		}

		return conn, true
	}

	return nil, false
}

// Release returns the connection into the pool, if the response allows it. Otherwise,
// the connection is closed. The response must not be fed anymore.
func (p *Pool) Release(conn *Conn, resp *Response) {
	if !resp.IsComplete() || !resp.ShouldKeepAlive() {
		if err := resp.Err(); err != nil {
			log.Printf("closing connection to %v: %s", conn.NetConn().RemoteAddr(), err)
		}

		_ = conn.Close()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle) >= p.maxIdle {
		_ = conn.Close()
		return
	}

	conn.idleSince = p.now()
	p.idle = append(p.idle, conn)
}

// Len returns the number of idle connections.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.idle)
}

// Close closes all the idle connections.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for i, conn := range p.idle {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		p.idle[i] = nil
	}

	p.idle = p.idle[:0]

	return firstErr
}
