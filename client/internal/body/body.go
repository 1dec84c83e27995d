package body

import (
	"io"
	"math"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/hresp/config"
	"github.com/indigo-web/hresp/errors"
	"github.com/indigo-web/hresp/http/framing"
)

// Reader consumes body bytes of a single response, according to its framing. It never
// takes bytes past the end of the body: those are returned back as rest.
type Reader struct {
	mode      framing.Mode
	bytesLeft int64
	received  int64
	maxSize   int64
	chunked   *chunkedbody.Parser
	done      bool
}

func NewReader(cfg *config.Config) *Reader {
	return &Reader{
		maxSize: cfg.Body.MaxSize,
	}
}

// Init prepares the reader for the body framed as described. A zero-length body
// is complete right away.
func (r *Reader) Init(f framing.Framing) {
	r.mode = f.Mode
	r.received = 0

	switch f.Mode {
	case framing.None:
		r.done = true
	case framing.ContentLength:
		r.bytesLeft = f.Length
		r.done = f.Length == 0
	case framing.Chunked:
		r.chunked = chunkedbody.NewParser(chunkedbody.DefaultSettings())
		r.done = false
	case framing.CloseDelimited:
		r.done = false
	}
}

// Read appends body bytes found in data to dst. done is set when the body is over, in
// which case rest holds the bytes following it.
func (r *Reader) Read(dst, data []byte) (body, rest []byte, done bool, err error) {
	if r.done {
		return dst, data, true, nil
	}

	switch r.mode {
	case framing.ContentLength:
		return r.readPlain(dst, data)
	case framing.Chunked:
		return r.readChunked(dst, data)
	case framing.CloseDelimited:
		return r.readUntilClose(dst, data)
	default:
		return dst, data, true, nil
	}
}

// EOF notifies the reader that the peer closed the connection. This completes
// close-delimited bodies, every other unfinished one is truncated.
func (r *Reader) EOF() error {
	if r.done {
		return nil
	}

	if r.mode == framing.CloseDelimited {
		r.done = true
		return nil
	}

	return io.ErrUnexpectedEOF
}

func (r *Reader) Done() bool {
	return r.done
}

func (r *Reader) readPlain(dst, data []byte) (body, rest []byte, done bool, err error) {
	n := min(r.bytesLeft, int64(len(data)))
	if err = r.account(n); err != nil {
		return dst, nil, false, err
	}

	r.bytesLeft -= n
	r.done = r.bytesLeft == 0

	return append(dst, data[:n]...), data[n:], r.done, nil
}

func (r *Reader) readChunked(dst, data []byte) (body, rest []byte, done bool, err error) {
	for len(data) > 0 {
		chunk, extra, perr := r.chunked.Parse(data, true)
		switch perr {
		case nil:
		case io.EOF:
			r.done = true
		default:
			return dst, nil, false, errors.ErrBadChunk
		}

		if err = r.account(int64(len(chunk))); err != nil {
			return dst, nil, false, err
		}

		dst = append(dst, chunk...)
		if r.done {
			return dst, extra, true, nil
		}

		if len(chunk) == 0 && len(extra) == len(data) {
			// no progress can be made until more data arrives
			break
		}

		data = extra
	}

	return dst, nil, false, nil
}

func (r *Reader) readUntilClose(dst, data []byte) (body, rest []byte, done bool, err error) {
	if err = r.account(int64(len(data))); err != nil {
		return dst, nil, false, err
	}

	return append(dst, data...), nil, false, nil
}

func (r *Reader) account(n int64) error {
	received, overflows := addint(r.received, n)
	if overflows || received > r.maxSize {
		return errors.ErrBodyTooLarge
	}

	r.received = received
	return nil
}

func addint(x, y int64) (int64, bool) {
	return x + y, math.MaxInt64-x < y
}
