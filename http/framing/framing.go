package framing

import (
	"github.com/indigo-web/hresp/errors"
	"github.com/indigo-web/hresp/http/headers"
	"github.com/indigo-web/hresp/http/status"
	"github.com/indigo-web/utils/strcomp"
)

// Mode tells how the end of a response body is found.
type Mode uint8

const (
	// None means the response ends right after its head.
	None Mode = iota
	// ContentLength means exactly Framing.Length bytes follow the head.
	ContentLength
	// Chunked means the body is a sequence of size-prefixed chunks.
	Chunked
	// CloseDelimited means the body ends when the peer closes the connection.
	CloseDelimited
)

func (m Mode) String() string {
	lut := [...]string{
		None:           "none",
		ContentLength:  "content-length",
		Chunked:        "chunked",
		CloseDelimited: "close-delimited",
	}
	if int(m) >= len(lut) {
		return ""
	}

	return lut[m]
}

// Framing is the body framing chosen for a response once its head is known.
type Framing struct {
	Mode Mode
	// Length is set for ContentLength mode only.
	Length int64
}

// Select picks the framing of a response, checking in the following order:
//  1. the bodyless hint, informational, 204 and 304 responses have no body;
//  2. Transfer-Encoding with chunked as the final coding, regardless of Content-Length;
//  3. Content-Length;
//  4. otherwise the body lasts until the connection is closed.
//
// Informational responses declaring any Transfer-Encoding or a positive Content-Length
// are rejected with errors.ErrInformationalBody.
func Select(code status.Code, bodyless bool, hdrs *headers.Headers) (Framing, error) {
	length, hasLength, err := contentLength(hdrs)
	if err != nil {
		return Framing{}, err
	}

	codings := headers.Tokens(hdrs.Values(headers.TransferEncoding))
	hasEncoding := hdrs.Has(headers.TransferEncoding)
	chunked := len(codings) > 0 && strcomp.EqualFold(codings[len(codings)-1], "chunked")

	switch {
	case status.Informational(code):
		if hasEncoding || length > 0 {
			return Framing{}, errors.ErrInformationalBody
		}

		return Framing{Mode: None}, nil
	case bodyless, status.Bodyless(code):
		return Framing{Mode: None}, nil
	case chunked:
		return Framing{Mode: Chunked}, nil
	case hasEncoding:
		// a transfer coding other than chunked is applied last, so the length can be
		// determined only by the connection closure.
		return Framing{Mode: CloseDelimited}, nil
	case hasLength:
		return Framing{Mode: ContentLength, Length: length}, nil
	default:
		return Framing{Mode: CloseDelimited}, nil
	}
}

// contentLength returns the value of Content-Length, if presented. Repeated values
// (either as separate fields or a comma-separated list) are fine as long as they are
// all the same.
func contentLength(hdrs *headers.Headers) (length int64, found bool, err error) {
	values := hdrs.Values(headers.ContentLength)
	if len(values) == 0 {
		return 0, false, nil
	}

	tokens := headers.Tokens(values)
	if len(tokens) == 0 {
		return 0, false, errors.ErrInvalidContentLength
	}

	length, err = parseUint(tokens[0])
	if err != nil {
		return 0, false, err
	}

	for _, token := range tokens[1:] {
		if token != tokens[0] {
			return 0, false, errors.ErrConflictingContentLength
		}
	}

	return length, true, nil
}

func parseUint(str string) (n int64, err error) {
	const maxLength = int64(^uint64(0) >> 1)

	if len(str) == 0 {
		return 0, errors.ErrInvalidContentLength
	}

	for i := 0; i < len(str); i++ {
		char := str[i]
		if char < '0' || char > '9' {
			return 0, errors.ErrInvalidContentLength
		}

		digit := int64(char - '0')
		if n > (maxLength-digit)/10 {
			return 0, errors.NewError(errors.InvalidContentLength, "content length overflows")
		}

		n = n*10 + digit
	}

	return n, nil
}
