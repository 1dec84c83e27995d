package parser

// Parser decodes the head of a message. Once headersCompleted is true, rest holds the
// bytes following the head, which belong to the body or to the next message.
type Parser interface {
	Parse(data []byte) (headersCompleted bool, rest []byte, err error)
}
