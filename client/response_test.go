package client

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/indigo-web/hresp/config"
	"github.com/indigo-web/hresp/errors"
	"github.com/indigo-web/hresp/http/framing"
	"github.com/indigo-web/hresp/http/proto"
	"github.com/indigo-web/hresp/http/status"
)

func feed(t *testing.T, resp *Response, data string) {
	n, err := resp.Feed([]byte(data))
	require.NoError(t, err)
	require.Equal(t, len(data), n)
}

func feedByByte(t *testing.T, resp *Response, data string) {
	for i := range len(data) {
		n, err := resp.Feed([]byte{data[i]})
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}
}

func TestKeepAlive(t *testing.T) {
	t.Run("HTTP/1.1", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 200 Ok\r\n\r\n")
		require.True(t, resp.ShouldKeepAlive())
		require.Equal(t, status.OK, resp.Code())
		require.Equal(t, proto.HTTP11, resp.Protocol())
	})

	t.Run("HTTP/1.0", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.0 200 Ok\r\n\r\n")
		require.False(t, resp.ShouldKeepAlive())
		require.Equal(t, status.OK, resp.Code())
	})

	t.Run("HTTP/1.0 with keep-alive", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.0 200 Ok\r\nConnection: Keep-Alive\r\nContent-Length: 0\r\n\r\n")
		require.True(t, resp.IsComplete())
		require.True(t, resp.ShouldKeepAlive())
	})

	t.Run("connection close", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 200 Ok\r\nConnection: upgrade, close\r\nContent-Length: 0\r\n\r\n")
		require.True(t, resp.IsComplete())
		require.False(t, resp.ShouldKeepAlive())
	})

	t.Run("bodyless", func(t *testing.T) {
		resp := NewResponse(true)
		feed(t, resp, "HTTP/1.1 200 Ok\r\n\r\n")
		require.True(t, resp.ShouldKeepAlive())
		require.True(t, resp.IsComplete())
	})

	t.Run("bodyless with body", func(t *testing.T) {
		resp := NewResponse(true)
		_, err := resp.Feed([]byte("HTTP/1.1 200 Ok\r\nContent-Length: 10\r\n\r\n0123456789"))
		require.ErrorIs(t, err, errors.ErrBodyOnBodyless)
		require.Equal(t, errors.IllegalBodyOnBodylessResponse, errors.KindOf(err))
		require.False(t, resp.ShouldKeepAlive())
		require.Equal(t, StateError, resp.State())
	})

	t.Run("bodyless with body in separate feed", func(t *testing.T) {
		resp := NewResponse(true)
		feed(t, resp, "HTTP/1.1 200 Ok\r\nContent-Length: 10\r\n\r\n")
		require.True(t, resp.IsComplete())
		require.True(t, resp.ShouldKeepAlive())

		_, err := resp.Feed([]byte("0123456789"))
		require.ErrorIs(t, err, errors.ErrBodyOnBodyless)
		require.False(t, resp.ShouldKeepAlive())
	})

	t.Run("bodyless followed by the next response", func(t *testing.T) {
		const head = "HTTP/1.1 200 Ok\r\nContent-Length: 10\r\n\r\n"
		for _, next := range []string{"HTTP/1.1 204 No Content\r\n\r\n", "HT"} {
			resp := NewResponse(true)
			n, err := resp.Feed([]byte(head + next))
			require.NoError(t, err)
			require.Equal(t, len(head), n)
			require.True(t, resp.IsComplete())
			require.True(t, resp.ShouldKeepAlive())
		}
	})

	for _, tc := range []struct {
		Name, Head, Body string
	}{
		{"no framing", "HTTP/1.1 200 Ok\r\n\r\n", "0123456789"},
		{"chunked", "HTTP/1.1 200 Ok\r\nTransfer-Encoding: chunked\r\n\r\n", "5\r\nhello\r\n0\r\n\r\n"},
		{"non-chunked coding", "HTTP/1.1 200 Ok\r\nTransfer-Encoding: gzip\r\n\r\n", "\x1f\x8b\x08"},
	} {
		t.Run("bodyless with body and "+tc.Name, func(t *testing.T) {
			resp := NewResponse(true)
			_, err := resp.Feed([]byte(tc.Head + tc.Body))
			require.ErrorIs(t, err, errors.ErrBodyOnBodyless)
			require.False(t, resp.ShouldKeepAlive())
		})
	}

	t.Run("informational with body bytes", func(t *testing.T) {
		resp := NewResponse(false)
		_, err := resp.Feed([]byte("HTTP/1.1 100 Continue\r\n\r\nbody"))
		require.ErrorIs(t, err, errors.ErrBodyOnBodyless)
		require.False(t, resp.ShouldKeepAlive())
	})

	t.Run("informational", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 100 Continue\r\n\r\n")
		require.True(t, resp.ShouldKeepAlive())
		require.True(t, resp.IsComplete())
	})

	for _, coding := range []string{"identity", "chunked"} {
		t.Run("informational with "+coding, func(t *testing.T) {
			resp := NewResponse(false)
			_, err := resp.Feed([]byte("HTTP/1.1 100 Continue\r\nTransfer-Encoding: " + coding + "\r\n\r\n"))
			require.Equal(t, errors.IllegalBodyOnBodylessResponse, errors.KindOf(err))
			require.False(t, resp.ShouldKeepAlive())
		})
	}

	t.Run("switching protocols", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n")
		require.True(t, resp.IsComplete())
		require.True(t, resp.Upgraded())
		require.False(t, resp.ShouldKeepAlive())
	})

	t.Run("idempotence", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 200 Ok\r\nContent-Length: 2\r\n\r\nok")
		for range 3 {
			require.True(t, resp.ShouldKeepAlive())
		}
	})
}

func TestFeed(t *testing.T) {
	t.Run("zero bytes", func(t *testing.T) {
		resp := NewResponse(false)
		n, err := resp.Feed(nil)
		require.NoError(t, err)
		require.Zero(t, n)
		require.Equal(t, StateStart, resp.State())
	})

	t.Run("states", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 2")
		require.Equal(t, StateStatusLine, resp.State())
		feed(t, resp, "00 OK\r\nContent-")
		require.Equal(t, StateHeaders, resp.State())
		require.False(t, resp.IsHeadComplete())
		feed(t, resp, "Length: 5\r\n\r\nhel")
		require.Equal(t, StateBody, resp.State())
		require.True(t, resp.IsHeadComplete())
		feed(t, resp, "lo")
		require.Equal(t, StateDone, resp.State())
		require.Equal(t, "hello", string(resp.Body()))
	})

	t.Run("content length", func(t *testing.T) {
		const raw = "HTTP/1.1 200 OK\r\nContent-Length: 13\r\nContent-Type: text/plain\r\n\r\nHello, world!"
		resp := NewResponse(false)
		feedByByte(t, resp, raw)
		require.True(t, resp.IsComplete())
		require.Equal(t, framing.ContentLength, resp.Mode())
		require.Equal(t, int64(13), resp.ContentLength())
		require.Equal(t, "Hello, world!", string(resp.Body()))
		require.Equal(t, "text/plain", resp.Headers().Value("content-type"))
		require.Equal(t, status.Status("OK"), resp.Status())
	})

	t.Run("chunked", func(t *testing.T) {
		const raw = "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\nContent-Length: 3\r\n\r\n" +
			"5\r\nHello\r\n8\r\n, world!\r\n0\r\nExpires: never\r\n\r\n"
		resp := NewResponse(false)
		feedByByte(t, resp, raw)
		require.True(t, resp.IsComplete())
		require.Equal(t, framing.Chunked, resp.Mode())
		require.Equal(t, int64(-1), resp.ContentLength())
		require.Equal(t, "Hello, world!", string(resp.Body()))
		require.True(t, resp.ShouldKeepAlive())
	})

	t.Run("malformed chunk", func(t *testing.T) {
		resp := NewResponse(false)
		_, err := resp.Feed([]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n"))
		require.Equal(t, errors.InvalidChunkFraming, errors.KindOf(err))
		require.False(t, resp.ShouldKeepAlive())
	})

	t.Run("close delimited", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 200 OK\r\n\r\nHello, ")
		feed(t, resp, "world!")
		require.Equal(t, framing.CloseDelimited, resp.Mode())
		require.False(t, resp.IsComplete())
		require.False(t, resp.ShouldKeepAlive())
		require.NoError(t, resp.EOF())
		require.True(t, resp.IsComplete())
		require.Equal(t, "Hello, world!", string(resp.Body()))
		require.False(t, resp.ShouldKeepAlive())
	})

	t.Run("pipelined", func(t *testing.T) {
		const first = "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
		const second = "HTTP/1.1 204 No Content\r\n\r\n"
		resp := NewResponse(false)
		n, err := resp.Feed([]byte(first + second))
		require.NoError(t, err)
		require.Equal(t, len(first), n)
		require.True(t, resp.IsComplete())

		resp.Reset()
		feed(t, resp, second)
		require.Equal(t, status.NoContent, resp.Code())
		require.True(t, resp.ShouldKeepAlive())
	})

	for _, code := range []string{"204 No Content", "304 Not Modified"} {
		t.Run(code, func(t *testing.T) {
			resp := NewResponse(false)
			raw := "HTTP/1.1 " + code + "\r\nContent-Length: 10\r\n\r\n"
			n, err := resp.Feed([]byte(raw + "HTTP/1.1"))
			require.NoError(t, err)
			require.Equal(t, len(raw), n)
			require.Equal(t, framing.None, resp.Mode())
			require.True(t, resp.ShouldKeepAlive())
		})
	}

	t.Run("continue then final", func(t *testing.T) {
		const interim = "HTTP/1.1 100 Continue\r\n\r\n"
		const final = "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\ndone"
		resp := NewResponse(false)
		n, err := resp.Feed([]byte(interim + final))
		require.NoError(t, err)
		require.Equal(t, len(interim), n)
		require.Equal(t, status.Continue, resp.Code())

		resp.Reset()
		feed(t, resp, final)
		require.Equal(t, status.OK, resp.Code())
		require.Equal(t, "done", string(resp.Body()))
	})

	t.Run("missing reason", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 404\r\nContent-Length: 0\r\n\r\n")
		require.Equal(t, status.Status("Not Found"), resp.Status())
	})

	t.Run("error is sticky", func(t *testing.T) {
		resp := NewResponse(false)
		_, err := resp.Feed([]byte("HTTP/2.0 200 OK\r\n\r\n"))
		require.Equal(t, errors.UnsupportedHTTPVersion, errors.KindOf(err))

		n, err2 := resp.Feed([]byte("HTTP/1.1 200 OK\r\n\r\n"))
		require.Zero(t, n)
		require.Equal(t, err, err2)
		require.Equal(t, err, resp.Err())
		require.False(t, resp.ShouldKeepAlive())
	})
}

func TestFeedErrors(t *testing.T) {
	for _, tc := range []struct {
		Name string
		Raw  string
		Kind errors.Kind
	}{
		{"garbage", "garbage\r\n\r\n", errors.MalformedStatusLine},
		{"bad code", "HTTP/1.1 2x0 OK\r\n\r\n", errors.MalformedStatusLine},
		{"bad header", "HTTP/1.1 200 OK\r\nno colon here\r\n\r\n", errors.MalformedHeaderLine},
		{"negative length", "HTTP/1.1 200 OK\r\nContent-Length: -1\r\n\r\n", errors.InvalidContentLength},
		{"non-numeric length", "HTTP/1.1 200 OK\r\nContent-Length: ten\r\n\r\n", errors.InvalidContentLength},
		{"conflicting length", "HTTP/1.1 200 OK\r\nContent-Length: 1\r\nContent-Length: 2\r\n\r\n", errors.InvalidContentLength},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			resp := NewResponse(false)
			_, err := resp.Feed([]byte(tc.Raw))
			require.Error(t, err)
			require.Equal(t, tc.Kind, errors.KindOf(err))
			require.Equal(t, StateError, resp.State())
			require.False(t, resp.ShouldKeepAlive())
		})
	}
}

func TestEOF(t *testing.T) {
	t.Run("nothing received", func(t *testing.T) {
		resp := NewResponse(false)
		require.ErrorIs(t, resp.EOF(), io.EOF)
		require.Equal(t, StateError, resp.State())
	})

	t.Run("truncated head", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 200 OK\r\n")
		require.ErrorIs(t, resp.EOF(), io.ErrUnexpectedEOF)
	})

	t.Run("truncated body", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n01234")
		require.ErrorIs(t, resp.EOF(), io.ErrUnexpectedEOF)
		require.False(t, resp.ShouldKeepAlive())
	})

	t.Run("complete", func(t *testing.T) {
		resp := NewResponse(false)
		feed(t, resp, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
		require.NoError(t, resp.EOF())
		require.True(t, resp.ShouldKeepAlive())
	})
}

func TestBodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Body.MaxSize = 4
	resp := NewResponseWithConfig(cfg, false)
	_, err := resp.Feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n0123456789"))
	require.Equal(t, errors.TooLarge, errors.KindOf(err))
}

func TestDecodedBody(t *testing.T) {
	var buff bytes.Buffer
	writer := gzip.NewWriter(&buff)
	_, err := writer.Write([]byte(`{"hello": "world", "answer": 42}`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp := NewResponse(false)
	feed(t, resp, "HTTP/1.1 200 OK\r\nContent-Encoding: gzip\r\nTransfer-Encoding: chunked\r\n\r\n")
	feed(t, resp, chunk(buff.String())+"0\r\n\r\n")
	require.True(t, resp.IsComplete())

	var model struct {
		Hello  string `json:"hello"`
		Answer int    `json:"answer"`
	}
	require.NoError(t, resp.JSON(&model))
	require.Equal(t, "world", model.Hello)
	require.Equal(t, 42, model.Answer)
}

func chunk(data string) string {
	const hex = "0123456789abcdef"
	var size []byte
	for n := len(data); n > 0; n /= 16 {
		size = append([]byte{hex[n%16]}, size...)
	}

	return string(size) + "\r\n" + data + "\r\n"
}
