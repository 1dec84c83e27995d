package coding

import (
	"bytes"
	"errors"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/indigo-web/utils/strcomp"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/indigo-web/hresp/internal/strutil"
)

var (
	ErrUnknownToken = errors.New("coding token is not recognized")
	ErrTooLarge     = errors.New("decoded content is too large")
)

type Token = string

// identity stands for "no encoding", according to RFC
const identity Token = "identity"

// Decoder wraps the encoded stream into a reader producing the decoded one.
type Decoder func(r io.Reader) (io.ReadCloser, error)

type Manager struct {
	decoders map[Token]Decoder
}

func NewManager() Manager {
	return Manager{
		decoders: make(map[Token]Decoder),
	}
}

// Default returns a manager aware of every content coding registered by IANA, which is
// still in use: gzip, deflate, br and zstd.
func Default() Manager {
	m := NewManager()
	m.AddDecoder("gzip", newGZIP)
	m.AddDecoder("deflate", newDeflate)
	m.AddDecoder("br", newBrotli)
	m.AddDecoder("zstd", newZSTD)

	return m
}

// AddDecoder adds a new decoder to the list of available
func (m Manager) AddDecoder(token Token, decoder Decoder) {
	m.decoders[token] = decoder

	// this exists in backward-capability purposes. Some old servers may use x-gzip
	// instead of regular gzip token.
	// see https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/Content-Encoding#directives
	if token == "gzip" {
		m.decoders["x-gzip"] = decoder
	}
}

// Decode undoes the codings, listed in the order they were applied (as in Content-Encoding.)
// The output is limited to limit bytes, exceeding it results in ErrTooLarge.
func (m Manager) Decode(tokens []Token, input []byte, limit int64) (output []byte, err error) {
	output = input

	for i := len(tokens) - 1; i >= 0; i-- {
		token := strutil.StripWS(tokens[i])
		if strcomp.EqualFold(token, identity) || len(output) == 0 {
			continue
		}

		decoder, found := m.lookup(token)
		if !found {
			return nil, ErrUnknownToken
		}

		if output, err = decode(decoder, output, limit); err != nil {
			return nil, err
		}
	}

	return output, nil
}

func (m Manager) lookup(token Token) (Decoder, bool) {
	if decoder, found := m.decoders[token]; found {
		return decoder, true
	}

	for key, decoder := range m.decoders {
		if strcomp.EqualFold(key, token) {
			return decoder, true
		}
	}

	return nil, false
}

func decode(decoder Decoder, input []byte, limit int64) ([]byte, error) {
	reader, err := decoder(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}

	defer reader.Close()

	output, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(output)) > limit {
		return nil, ErrTooLarge
	}

	return output, nil
}

func newGZIP(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// newDeflate decodes the deflate coding, which is defined as zlib-wrapped stream. Some
// servers however send raw deflate data, so it is accepted, too.
func newDeflate(r io.Reader) (io.ReadCloser, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return flate.NewReader(bytes.NewReader(raw)), nil
	}

	return reader, nil
}

func newBrotli(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}

func newZSTD(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}

	return decoder.IOReadCloser(), nil
}
