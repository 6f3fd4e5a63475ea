package protocol

import "errors"

// Protocol level failures. Transport code wraps these with context and
// matches them with errors.Is.
var (
	// ErrFrameIncomplete means the stream ended before a full frame arrived.
	ErrFrameIncomplete = errors.New("frame incomplete")

	// ErrChecksumInvalid means the received checksum did not match.
	ErrChecksumInvalid = errors.New("checksum invalid")

	// ErrUnexpectedResponse means the response opcode differs from the request.
	ErrUnexpectedResponse = errors.New("unexpected response opcode")

	// ErrUnknownModel means the system info model byte is not in the table.
	ErrUnknownModel = errors.New("unknown integra model")

	// ErrShortPayload means a response payload is too short to decode.
	ErrShortPayload = errors.New("response payload too short")
)
