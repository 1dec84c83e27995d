package http1

type parserState int

const (
	eProto parserState = iota + 1
	eCode
	eStatus
	eHeaderLineStart
	eHeaderKey
	eHeaderKeyCR
	eHeaderColon
	eHeaderValue
	eHeaderFold
	eDone
)
