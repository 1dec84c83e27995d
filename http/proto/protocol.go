package proto

import "github.com/indigo-web/utils/uf"

type Protocol uint8

const (
	Unknown Protocol = 0
	HTTP10  Protocol = 1 << iota
	HTTP11

	HTTP1 = HTTP10 | HTTP11
)

func (p Protocol) String() string {
	lut := [...]string{HTTP10: "HTTP/1.0", HTTP11: "HTTP/1.1"}
	if int(p) >= len(lut) {
		return ""
	}

	return lut[p]
}

const (
	protoTokenLength   = len("HTTP/x.x")
	majorVersionOffset = len("HTTP/x") - 1
	minorVersionOffset = len("HTTP/x.x") - 1
	dotOffset          = len("HTTP/x")
	httpScheme         = "HTTP/"
)

// only HTTP/1.x may be framed by this parser. HTTP/2 has a different wire format
// entirely, so it is as unknown as HTTP/3.
var majorMinorVersionLUT = [10][10]Protocol{
	1: {0: HTTP10, 1: HTTP11},
}

// WellFormed reports whether raw looks like an HTTP-version token, i.e. HTTP/<digit>.<digit>,
// regardless of whether the version is supported.
func WellFormed(raw []byte) bool {
	return len(raw) == protoTokenLength &&
		uf.B2S(raw[:majorVersionOffset]) == httpScheme &&
		isDigit(raw[majorVersionOffset]) &&
		raw[dotOffset] == '.' &&
		isDigit(raw[minorVersionOffset])
}

// FromBytes returns the protocol represented by the token, or Unknown if it is either
// malformed or unsupported.
func FromBytes(raw []byte) Protocol {
	if !WellFormed(raw) {
		return Unknown
	}

	return Parse(raw[majorVersionOffset]-'0', raw[minorVersionOffset]-'0')
}

func Parse(major, minor uint8) Protocol {
	if major > 9 || minor > 9 {
		return Unknown
	}

	return majorMinorVersionLUT[major][minor]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
