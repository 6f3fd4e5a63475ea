package integra

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/muurk/integra-bridge/internal/protocol"
)

// ErrorType represents the category of a failed command execution
type ErrorType int

const (
	// ErrTypeSocket indicates a connect, read or write failure
	ErrTypeSocket ErrorType = iota
	// ErrTypeTimeout indicates the controller did not answer in time
	ErrTypeTimeout
	// ErrTypeFrameIncomplete indicates the stream ended mid-frame
	ErrTypeFrameIncomplete
	// ErrTypeChecksumInvalid indicates a corrupted response
	ErrTypeChecksumInvalid
	// ErrTypeUnexpectedResponse indicates the response echoed another opcode
	ErrTypeUnexpectedResponse
	// ErrTypeUnknownModel indicates an unsupported controller model
	ErrTypeUnknownModel
	// ErrTypeDecode indicates a response payload that could not be decoded
	ErrTypeDecode
	// ErrTypeCanceled indicates the executor was stopped
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeSocket:
		return "Socket Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeFrameIncomplete:
		return "Frame Incomplete"
	case ErrTypeChecksumInvalid:
		return "Checksum Invalid"
	case ErrTypeUnexpectedResponse:
		return "Unexpected Response"
	case ErrTypeUnknownModel:
		return "Unknown Model"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// CommandError describes why a command execution failed.
type CommandError struct {
	Type      ErrorType // Category of error
	Command   string    // Command name, e.g. "zone_states"
	Opcode    byte      // Opcode that was sent
	Attempts  int       // Attempts made before giving up
	Frame     []byte    // Raw bytes received, if any
	Err       error     // Underlying error
	Retryable bool      // Whether another attempt may succeed
}

// Error implements the error interface
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s (0x%02X) after %d attempt(s): %v",
		e.Type, e.Command, e.Opcode, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a CommandError that may succeed on retry
func IsRetryable(err error) bool {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Retryable
	}
	return false
}

// classifyError wraps a failure of one attempt in a CommandError.
func classifyError(cmd protocol.Command, err error, frame []byte) *CommandError {
	cmdErr := &CommandError{
		Type:      ErrTypeSocket,
		Command:   commandName(cmd),
		Opcode:    cmd.Opcode(),
		Frame:     frame,
		Err:       err,
		Retryable: true,
	}

	switch {
	case errors.Is(err, context.Canceled):
		cmdErr.Type = ErrTypeCanceled
		cmdErr.Retryable = false
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err):
		cmdErr.Type = ErrTypeTimeout
	case errors.Is(err, protocol.ErrUnknownModel):
		cmdErr.Type = ErrTypeUnknownModel
		cmdErr.Retryable = false
	case errors.Is(err, protocol.ErrShortPayload):
		cmdErr.Type = ErrTypeDecode
	case errors.Is(err, protocol.ErrChecksumInvalid):
		cmdErr.Type = ErrTypeChecksumInvalid
	case errors.Is(err, protocol.ErrUnexpectedResponse):
		cmdErr.Type = ErrTypeUnexpectedResponse
	case errors.Is(err, protocol.ErrFrameIncomplete):
		cmdErr.Type = ErrTypeFrameIncomplete
	}

	return cmdErr
}

func commandName(cmd protocol.Command) string {
	return protocol.CommandName(cmd.Opcode())
}
