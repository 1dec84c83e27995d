package http1

import (
	"bytes"

	"github.com/indigo-web/hresp/client/internal/parser"
	"github.com/indigo-web/hresp/config"
	"github.com/indigo-web/hresp/errors"
	"github.com/indigo-web/hresp/http/headers"
	"github.com/indigo-web/hresp/http/proto"
	"github.com/indigo-web/hresp/http/status"
	"github.com/indigo-web/hresp/internal/strutil"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
	"golang.org/x/net/http/httpguts"
)

var _ parser.Parser = &Parser{}

const protoTokenLength = len("HTTP/x.x")

// Parser decodes a status line and the header fields following it. It never
// needs the whole head at once: every state can be suspended and resumed at any byte.
type Parser struct {
	state         parserState
	headers       *headers.Headers
	cfg           *config.Config
	protoBuff     [protoTokenLength]byte
	protoLen      int
	protocol      proto.Protocol
	code          status.Code
	codeDigits    int
	reason        status.Status
	statusBuff    buffer.Buffer[byte]
	keyBuff       buffer.Buffer[byte]
	valueBuff     buffer.Buffer[byte]
	keyLen        int
	headerKey     string
	headersNumber int
}

func NewParser(cfg *config.Config, hdrs *headers.Headers) *Parser {
	return &Parser{
		state:   eProto,
		headers: hdrs,
		cfg:     cfg,
		statusBuff: *buffer.NewBuffer[byte](
			cfg.StatusLine.Size.Default, cfg.StatusLine.Size.Maximal,
		),
		keyBuff: *buffer.NewBuffer[byte](
			cfg.Headers.MaxKeyLength*cfg.Headers.Number.Default,
			cfg.Headers.MaxKeyLength*cfg.Headers.Number.Maximal,
		),
		valueBuff: *buffer.NewBuffer[byte](
			cfg.Headers.Space.Default, cfg.Headers.Space.Maximal,
		),
	}
}

// Parse consumes the data until the head is complete. In case it's not, all the data
// is consumed and rest is nil.
func (p *Parser) Parse(data []byte) (headersCompleted bool, rest []byte, err error) {
	switch p.state {
	case eProto:
		goto protocol
	case eCode:
		goto code
	case eStatus:
		goto reason
	case eHeaderLineStart:
		goto headerLineStart
	case eHeaderKey:
		goto headerKey
	case eHeaderKeyCR:
		goto headerKeyCR
	case eHeaderColon:
		goto headerColon
	case eHeaderValue:
		goto headerValue
	case eHeaderFold:
		goto headerFold
	case eDone:
		return true, data, nil
	default:
		panic("BUG: response parser: unknown state")
	}

protocol:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case ' ':
			token := p.protoBuff[:p.protoLen]
			if !proto.WellFormed(token) {
				return false, nil, errors.ErrMalformedStatusLine
			}

			if p.protocol = proto.FromBytes(token); p.protocol == proto.Unknown {
				return false, nil, errors.ErrUnsupportedProtocol
			}

			data = data[i+1:]
			p.state = eCode
			goto code
		case '\r', '\n':
			return false, nil, errors.ErrMalformedStatusLine
		default:
			if p.protoLen == protoTokenLength {
				return false, nil, errors.ErrMalformedStatusLine
			}

			p.protoBuff[p.protoLen] = char
			p.protoLen++
		}
	}

	p.state = eProto
	return false, nil, nil

code:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; {
		case char >= '0' && char <= '9':
			if p.codeDigits++; p.codeDigits > 3 {
				return false, nil, errors.ErrBadStatusCode
			}

			p.code = p.code*10 + status.Code(char-'0')
		case char == ' ', char == '\r', char == '\n':
			if p.codeDigits != 3 || !status.Valid(p.code) {
				return false, nil, errors.ErrBadStatusCode
			}

			if char == ' ' {
				data = data[i+1:]
			} else {
				// the reason phrase is omitted, which is tolerated. Leave the line
				// terminator to the reason state.
				data = data[i:]
			}

			p.state = eStatus
			goto reason
		default:
			return false, nil, errors.ErrBadStatusCode
		}
	}

	p.state = eCode
	return false, nil, nil

reason:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.statusBuff.Append(data...) {
				return false, nil, errors.ErrStatusLineTooLong
			}

			p.state = eStatus
			return false, nil, nil
		}

		if !p.statusBuff.Append(data[:lf]...) {
			return false, nil, errors.ErrStatusLineTooLong
		}

		p.reason = status.Status(strutil.StripWS(uf.B2S(rstripCR(p.statusBuff.Finish()))))
		data = data[lf+1:]
		goto headerLineStart
	}

headerLineStart:
	if len(data) == 0 {
		p.state = eHeaderLineStart
		return false, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto headerKeyCR
	case '\n':
		data = data[1:]
		goto exitSuccess
	case ' ', '\t':
		// obsolete line folding: the line continues the previous header value
		goto headerFold
	}

	p.keyLen = 0
	goto headerKey

headerKey:
	{
		colon := bytes.IndexByte(data, ':')
		if colon == -1 {
			if bytes.IndexByte(data, '\n') != -1 {
				return false, nil, errors.ErrMalformedHeaderLine
			}

			if err = p.appendKey(data); err != nil {
				return false, nil, err
			}

			p.state = eHeaderKey
			return false, nil, nil
		}

		if err = p.appendKey(data[:colon]); err != nil {
			return false, nil, err
		}

		p.headerKey = uf.B2S(p.keyBuff.Finish())
		if !httpguts.ValidHeaderFieldName(p.headerKey) {
			return false, nil, errors.ErrBadHeaderName
		}

		if p.headersNumber++; p.headersNumber > p.cfg.Headers.Number.Maximal {
			return false, nil, errors.ErrTooManyHeaders
		}

		data = data[colon+1:]
		goto headerColon
	}

headerKeyCR:
	if len(data) == 0 {
		p.state = eHeaderKeyCR
		return false, nil, nil
	}

	if data[0] != '\n' {
		return false, nil, errors.ErrMalformedHeaderLine
	}

	data = data[1:]
	goto exitSuccess

headerColon:
	for i := 0; i < len(data); i++ {
		if !strutil.IsWS(data[i]) {
			data = data[i:]
			goto headerValue
		}
	}

	p.state = eHeaderColon
	return false, nil, nil

headerValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.valueBuff.Append(data...) {
				return false, nil, errors.ErrHeaderFieldsTooBig
			}

			p.state = eHeaderValue
			return false, nil, nil
		}

		if !p.valueBuff.Append(data[:lf]...) {
			return false, nil, errors.ErrHeaderFieldsTooBig
		}

		value := strutil.RStripWS(uf.B2S(rstripCR(p.valueBuff.Finish())))
		p.headers.Add(p.headerKey, value)
		data = data[lf+1:]
		goto headerLineStart
	}

headerFold:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.valueBuff.Append(data...) {
				return false, nil, errors.ErrHeaderFieldsTooBig
			}

			p.state = eHeaderFold
			return false, nil, nil
		}

		if !p.valueBuff.Append(data[:lf]...) {
			return false, nil, errors.ErrHeaderFieldsTooBig
		}

		continuation := strutil.StripWS(uf.B2S(rstripCR(p.valueBuff.Finish())))
		if !p.headers.Fold(continuation) {
			return false, nil, errors.ErrDanglingFold
		}

		data = data[lf+1:]
		goto headerLineStart
	}

exitSuccess:
	p.state = eDone
	return true, data, nil
}

// Reset prepares the parser for the next head on the same connection. Strings
// returned from the previous one must not be used anymore.
func (p *Parser) Reset() {
	p.state = eProto
	p.protoLen = 0
	p.protocol = proto.Unknown
	p.code = 0
	p.codeDigits = 0
	p.reason = ""
	p.keyLen = 0
	p.headerKey = ""
	p.headersNumber = 0
	p.statusBuff.Clear()
	p.keyBuff.Clear()
	p.valueBuff.Clear()
}

// StatusLineDone reports whether the status line was fully parsed, so Protocol, Code
// and Status are valid.
func (p *Parser) StatusLineDone() bool {
	return p.state >= eHeaderLineStart
}

func (p *Parser) Protocol() proto.Protocol {
	return p.protocol
}

func (p *Parser) Code() status.Code {
	return p.code
}

func (p *Parser) Status() status.Status {
	return p.reason
}

func (p *Parser) appendKey(data []byte) error {
	if p.keyLen += len(data); p.keyLen > p.cfg.Headers.MaxKeyLength {
		return errors.ErrHeaderKeyTooLarge
	}

	if !p.keyBuff.Append(data...) {
		return errors.ErrHeaderFieldsTooBig
	}

	return nil
}

func rstripCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}

	return b
}
