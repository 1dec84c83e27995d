package config

import (
	"time"
)

type (
	StatusLineSize struct {
		Default, Maximal int
	}

	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}
)

type (
	StatusLine struct {
		// Size bounds the buffer storing the protocol and the reason phrase in case the
		// status line arrives split across multiple reads. Reaching the maximal boundary
		// results in errors.ErrStatusLineTooLong.
		Size StatusLineSize
	}

	Headers struct {
		// Number is responsible for headers storage size.
		// Default value is an initial size of allocated headers storage.
		// Maximal value is maximum number of headers allowed to be presented
		Number HeadersNumber
		// Space limits the amount of memory occupied by response header values.
		Space HeadersSpace
		// MaxKeyLength is the longest header name accepted.
		MaxKeyLength int
	}

	Body struct {
		// MaxSize describes the maximal size of a body that can be accumulated. In order
		// to disable the setting, use the math.MaxInt64 value.
		MaxSize int64
		// BufferPrealloc is the initial capacity of a body buffer, if its length isn't known
		// in advance (chunked or close-delimited bodies.)
		BufferPrealloc int
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int
		// ReadTimeout limits how long a single read may block while waiting for a response.
		ReadTimeout time.Duration
	}

	Pool struct {
		// MaxIdle is the number of reusable connections kept at once. Connections released
		// over the limit are closed.
		MaxIdle int
		// IdleTimeout drops connections which stayed unused for longer.
		IdleTimeout time.Duration
	}
)

// Config holds limits and pre-allocations used by the response parser and the connection
// helpers.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	StatusLine StatusLine
	Headers    Headers
	Body       Body
	NET        NET
	Pool       Pool
}

// Default returns default config. Those are initially well-balanced, however maximal defaults
// are pretty permitting.
func Default() *Config {
	return &Config{
		StatusLine: StatusLine{
			Size: StatusLineSize{
				Default: 64,
				// reason phrases are expected to be short, however some servers put whole
				// sentences in there.
				Maximal: 4 * 1024,
			},
		},
		Headers: Headers{
			Number: HeadersNumber{
				Default: 10,
				Maximal: 100,
			},
			Space: HeadersSpace{
				Default: 1 * 1024,  // 1kb for headers must be fairly enough in most cases.
				Maximal: 64 * 1024, // However, there also might be extremely long cookies.
			},
			MaxKeyLength: 256,
		},
		Body: Body{
			MaxSize:        512 * 1024 * 1024, // 512 megabytes
			BufferPrealloc: 1024,
		},
		NET: NET{
			ReadBufferSize: 4 * 1024,
			ReadTimeout:    90 * time.Second,
		},
		Pool: Pool{
			MaxIdle:     16,
			IdleTimeout: 90 * time.Second,
		},
	}
}
