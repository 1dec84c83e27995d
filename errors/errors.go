package errors

import (
	"errors"
)

// Kind tags every parse error, so callers can switch on it instead of comparing
// messages.
type Kind uint8

const (
	Unknown Kind = iota
	MalformedStatusLine
	MalformedHeaderLine
	InvalidContentLength
	InvalidChunkFraming
	IllegalBodyOnBodylessResponse
	UnsupportedHTTPVersion
	// TooLarge is returned when one of the config.Config limits is exceeded.
	TooLarge
)

func (k Kind) String() string {
	lut := [...]string{
		Unknown:                       "Unknown",
		MalformedStatusLine:           "MalformedStatusLine",
		MalformedHeaderLine:           "MalformedHeaderLine",
		InvalidContentLength:          "InvalidContentLength",
		InvalidChunkFraming:           "InvalidChunkFraming",
		IllegalBodyOnBodylessResponse: "IllegalBodyOnBodylessResponse",
		UnsupportedHTTPVersion:        "UnsupportedHTTPVersion",
		TooLarge:                      "TooLarge",
	}
	if int(k) >= len(lut) {
		return "Unknown"
	}

	return lut[k]
}

// ParseError is the only error type the parser produces. Once returned, the byte stream
// cannot be trusted anymore and the connection must be discarded.
type ParseError struct {
	Kind   Kind
	Reason string
}

func NewError(kind Kind, reason string) error {
	return ParseError{
		Kind:   kind,
		Reason: reason,
	}
}

func (p ParseError) Error() string {
	return p.Reason
}

// Is matches any ParseError of the same kind, so the sentinels below can be used with
// errors.Is regardless of the exact reason.
func (p ParseError) Is(target error) bool {
	other, ok := target.(ParseError)
	return ok && other.Kind == p.Kind
}

// KindOf returns the kind of the parse error wrapped by err, or Unknown.
func KindOf(err error) Kind {
	var perr ParseError
	if errors.As(err, &perr) {
		return perr.Kind
	}

	return Unknown
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	return KindOf(err) != Unknown
}

var (
	ErrMalformedStatusLine = NewError(MalformedStatusLine, "malformed status line")
	ErrBadStatusCode       = NewError(MalformedStatusLine, "status code must be 3 digits in range 100-599")
	ErrUnsupportedProtocol = NewError(UnsupportedHTTPVersion, "HTTP version not supported")

	ErrMalformedHeaderLine = NewError(MalformedHeaderLine, "malformed header line")
	ErrBadHeaderName       = NewError(MalformedHeaderLine, "header name contains invalid characters")
	ErrDanglingFold        = NewError(MalformedHeaderLine, "folded header value without a preceding header")

	ErrInvalidContentLength     = NewError(InvalidContentLength, "content length is not a non-negative decimal")
	ErrConflictingContentLength = NewError(InvalidContentLength, "conflicting content length values")

	ErrBadChunk = NewError(InvalidChunkFraming, "malformed chunk-encoded data")

	ErrBodyOnBodyless     = NewError(IllegalBodyOnBodylessResponse, "body bytes on a bodyless response")
	ErrInformationalBody  = NewError(IllegalBodyOnBodylessResponse, "informational response declares a body")
	ErrStatusLineTooLong  = NewError(TooLarge, "status line is too long")
	ErrHeaderKeyTooLarge  = NewError(TooLarge, "header key is too long")
	ErrHeaderFieldsTooBig = NewError(TooLarge, "too large headers section")
	ErrTooManyHeaders     = NewError(TooLarge, "too many headers")
	ErrBodyTooLarge       = NewError(TooLarge, "response body is too large")
)
