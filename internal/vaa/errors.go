package vaa

import "errors"

var (
	// ErrOutOfRange is returned by Cursor reads past the end of the buffer.
	ErrOutOfRange = errors.New("read out of range")

	// ErrMalformedEnvelope covers bad base64, a truncated header and a
	// signature count that points past the end of the message.
	ErrMalformedEnvelope = errors.New("malformed VAA envelope")

	// ErrTruncated is returned when the body or payload is shorter than its fixed fields.
	ErrTruncated = errors.New("truncated VAA")
)
