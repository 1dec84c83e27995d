package headers

import (
	"strings"

	"github.com/indigo-web/hresp/internal/strutil"
)

// Header fields the framing state machine looks at.
const (
	ContentLength    = "Content-Length"
	TransferEncoding = "Transfer-Encoding"
	ContentEncoding  = "Content-Encoding"
	Connection       = "Connection"
	ContentType      = "Content-Type"
)

// Tokens flattens comma-separated list values (e.g. Transfer-Encoding) into separate
// tokens, preserving their order. Empty list elements are skipped.
func Tokens(values []string) []string {
	var tokens []string

	for _, value := range values {
		for len(value) > 0 {
			var token string
			token, value, _ = strings.Cut(value, ",")
			if token = strutil.StripWS(token); len(token) > 0 {
				tokens = append(tokens, token)
			}
		}
	}

	return tokens
}
