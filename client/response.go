package client

import (
	"bytes"
	"io"

	json "github.com/json-iterator/go"
	"golang.org/x/net/http/httpguts"

	"github.com/indigo-web/hresp/client/internal/body"
	"github.com/indigo-web/hresp/client/internal/parser/http1"
	"github.com/indigo-web/hresp/config"
	"github.com/indigo-web/hresp/errors"
	"github.com/indigo-web/hresp/http/coding"
	"github.com/indigo-web/hresp/http/framing"
	"github.com/indigo-web/hresp/http/headers"
	"github.com/indigo-web/hresp/http/proto"
	"github.com/indigo-web/hresp/http/status"
)

type State uint8

const (
	StateStart State = iota
	StateStatusLine
	StateHeaders
	StateBody
	StateDone
	StateError
)

func (s State) String() string {
	lut := [...]string{
		StateStart:      "start",
		StateStatusLine: "status-line",
		StateHeaders:    "headers",
		StateBody:       "body",
		StateDone:       "done",
		StateError:      "error",
	}
	if int(s) >= len(lut) {
		return ""
	}

	return lut[s]
}

var (
	codings          = coding.Default()
	statusLinePrefix = []byte("HTTP/")
)

// Response is a single HTTP/1.x response, decoded incrementally from the bytes it's fed with.
// Once its head is complete, it also knows whether the connection may be reused afterwards.
//
// Response isn't safe for concurrent use.
type Response struct {
	cfg          *config.Config
	bodyless     bool
	state        State
	headers      *headers.Headers
	parser       *http1.Parser
	reader       *body.Reader
	framing      framing.Framing
	keepAlive    bool
	upgraded     bool
	headComplete bool
	body         []byte
	err          error
}

// NewResponse returns a response with default limits. The bodyless flag must be set
// when the response is known to carry no body regardless of its headers, e.g. the one
// replying to a HEAD request.
func NewResponse(bodyless bool) *Response {
	return NewResponseWithConfig(config.Default(), bodyless)
}

func NewResponseWithConfig(cfg *config.Config, bodyless bool) *Response {
	hdrs := headers.NewPrealloc(cfg.Headers.Number.Default)

	return &Response{
		cfg:      cfg,
		bodyless: bodyless,
		headers:  hdrs,
		parser:   http1.NewParser(cfg, hdrs),
		reader:   body.NewReader(cfg),
	}
}

// Feed consumes the data, returning how many bytes of it belong to the response. Bytes
// left after the response is complete are not consumed, as they may be the beginning of
// the next one. Feeding an empty slice is a no-op.
//
// Every returned error is fatal: the response stays in StateError forever, and the
// connection must not be reused.
func (r *Response) Feed(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, nil
	}

	total := len(data)

	switch r.state {
	case StateError:
		return 0, r.err
	case StateStart:
		r.state = StateStatusLine
		fallthrough
	case StateStatusLine, StateHeaders:
		done, rest, err := r.parser.Parse(data)
		if err != nil {
			return 0, r.fail(err)
		}

		if r.state == StateStatusLine && r.parser.StatusLineDone() {
			r.state = StateHeaders
		}

		if !done {
			return total, nil
		}

		if err = r.completeHead(); err != nil {
			return 0, err
		}

		data = rest
	}

	if r.state == StateBody && len(data) > 0 {
		buff, rest, done, err := r.reader.Read(r.body, data)
		r.body = buff
		if err != nil {
			return 0, r.fail(err)
		}

		if done {
			r.state = StateDone
		}

		data = rest
	}

	if r.state == StateDone && len(data) > 0 && r.illegalTail(data) {
		return 0, r.fail(errors.ErrBodyOnBodyless)
	}

	return total - len(data), nil
}

// EOF tells the response that the peer has closed the connection. Close-delimited
// bodies are complete at this point, every other incomplete response is truncated.
func (r *Response) EOF() error {
	switch r.state {
	case StateError:
		return r.err
	case StateDone:
		return nil
	case StateStart:
		return r.fail(io.EOF)
	case StateStatusLine, StateHeaders:
		return r.fail(io.ErrUnexpectedEOF)
	}

	if err := r.reader.EOF(); err != nil {
		return r.fail(err)
	}

	r.state = StateDone
	return nil
}

// Reset prepares the response to be fed with the next one. The bodyless flag is kept.
func (r *Response) Reset() {
	r.state = StateStart
	r.headers.Clear()
	r.parser.Reset()
	r.framing = framing.Framing{}
	r.keepAlive = false
	r.upgraded = false
	r.headComplete = false
	r.body = nil
	r.err = nil
}

func (r *Response) completeHead() error {
	r.headComplete = true
	r.upgraded = r.parser.Code() == status.SwitchingProtocols

	f, err := framing.Select(r.parser.Code(), r.bodyless, r.headers)
	r.framing = f
	if err != nil {
		return r.fail(err)
	}

	r.keepAlive = r.headKeepAlive()
	r.reader.Init(f)

	if r.reader.Done() {
		r.state = StateDone
		return nil
	}

	prealloc := int64(r.cfg.Body.BufferPrealloc)
	if f.Mode == framing.ContentLength {
		prealloc = min(f.Length, prealloc)
	}

	r.body = make([]byte, 0, prealloc)
	r.state = StateBody

	return nil
}

// headKeepAlive is the verdict driven by the protocol version and the Connection header.
func (r *Response) headKeepAlive() bool {
	if r.upgraded {
		return false
	}

	connection := r.headers.Values(headers.Connection)
	if httpguts.HeaderValuesContainsToken(connection, "close") {
		return false
	}

	if r.parser.Protocol() == proto.HTTP10 {
		return httpguts.HeaderValuesContainsToken(connection, "keep-alive")
	}

	return true
}

// illegalTail reports whether bytes following a complete response, which must have
// no body, can't be the beginning of the next response and so are its body.
func (r *Response) illegalTail(tail []byte) bool {
	informational := status.Informational(r.parser.Code()) && !r.upgraded
	if !r.bodyless && !informational {
		return false
	}

	n := min(len(tail), len(statusLinePrefix))
	return !bytes.Equal(tail[:n], statusLinePrefix[:n])
}

func (r *Response) fail(err error) error {
	r.state = StateError
	r.keepAlive = false
	r.err = err

	return err
}

// ShouldKeepAlive tells whether the connection may be reused once the response is done.
// A close-delimited body forbids it as soon as the body shows up, as only the connection
// closure can end it.
func (r *Response) ShouldKeepAlive() bool {
	switch {
	case r.state == StateError:
		return false
	case r.framing.Mode == framing.CloseDelimited && (r.state == StateDone || len(r.body) > 0):
		return false
	default:
		return r.keepAlive
	}
}

func (r *Response) State() State {
	return r.state
}

func (r *Response) IsHeadComplete() bool {
	return r.headComplete
}

func (r *Response) IsComplete() bool {
	return r.state == StateDone
}

func (r *Response) Err() error {
	return r.err
}

func (r *Response) Protocol() proto.Protocol {
	return r.parser.Protocol()
}

func (r *Response) Code() status.Code {
	return r.parser.Code()
}

// Status returns the reason phrase. If the server omitted it, the standard one for
// the code is returned instead.
func (r *Response) Status() status.Status {
	if reason := r.parser.Status(); len(reason) > 0 {
		return reason
	}

	return status.Text(r.parser.Code())
}

func (r *Response) Headers() *headers.Headers {
	return r.headers
}

// Upgraded reports whether the server switched the protocol, so the connection doesn't
// speak HTTP anymore.
func (r *Response) Upgraded() bool {
	return r.upgraded
}

func (r *Response) Mode() framing.Mode {
	return r.framing.Mode
}

// ContentLength returns the declared length of the body, or -1 if the body isn't
// framed by Content-Length.
func (r *Response) ContentLength() int64 {
	if r.framing.Mode != framing.ContentLength {
		return -1
	}

	return r.framing.Length
}

// Body returns the body received so far. Its content is still encoded, if
// Content-Encoding was set.
func (r *Response) Body() []byte {
	return r.body
}

// DecodedBody returns the body with all the content codings undone.
func (r *Response) DecodedBody() ([]byte, error) {
	tokens := headers.Tokens(r.headers.Values(headers.ContentEncoding))
	if len(tokens) == 0 {
		return r.body, nil
	}

	return codings.Decode(tokens, r.body, r.cfg.Body.MaxSize)
}

// JSON unmarshalls the decoded body into the model.
func (r *Response) JSON(model any) error {
	data, err := r.DecodedBody()
	if err != nil {
		return err
	}

	iterator := json.ConfigDefault.BorrowIterator(data)
	iterator.ReadVal(model)
	err = iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	return err
}
