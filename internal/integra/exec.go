package integra

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/muurk/integra-bridge/internal/logging"
	"github.com/muurk/integra-bridge/internal/protocol"
)

const (
	// MaxAttempts is the original attempt plus one retry
	MaxAttempts = 2

	// maxFrameSize bounds the receive buffer when no end marker arrives
	maxFrameSize = 1024

	readChunkSize = 256
)

// Execution states, used for logging
const (
	stateConnecting       = "connecting"
	stateAwaitingResponse = "awaiting_response"
	stateValidating       = "validating"
	stateDecoding         = "decoding"
	stateDone             = "done"
	stateFailed           = "failed"
)

// execute runs cmd with one retry for retryable failures.
func (c *Client) execute(ctx context.Context, cmd protocol.Command) result {
	var cmdErr *CommandError
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		res, err := c.attempt(ctx, cmd, attempt)
		if err == nil {
			return res
		}

		cmdErr = err
		cmdErr.Attempts = attempt
		if !cmdErr.Retryable || attempt == MaxAttempts {
			break
		}

		logging.Warn("Command attempt failed, retrying",
			zap.String("command", cmdErr.Command),
			zap.Int("attempt", attempt),
			zap.String("error_type", cmdErr.Type.String()),
			zap.Error(cmdErr.Err),
		)
	}

	logging.Error("Command failed",
		zap.String("command", cmdErr.Command),
		zap.Int("attempts", cmdErr.Attempts),
		zap.String("error_type", cmdErr.Type.String()),
		zap.Error(cmdErr.Err),
		logging.FrameField("raw", cmdErr.Frame),
		logging.FrameField("unescaped", protocol.UnescapeFrame(cmdErr.Frame)),
	)
	return result{err: cmdErr}
}

// attempt performs one Connecting → AwaitingResponse → Validating →
// Decoding pass on a fresh connection. The connection is closed on every
// exit path.
func (c *Client) attempt(parent context.Context, cmd protocol.Command, n int) (result, *CommandError) {
	name := commandName(cmd)
	ctx, cancel := context.WithTimeout(parent, c.responseTimeout)
	defer cancel()

	logging.LogCommand(name, stateConnecting, n)
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		return c.fail(ctx, cmd, n, err, nil)
	}
	logging.LogConnection(c.dialer.Addr(), "connected")

	// Closing the connection is the only way to unblock a pending read,
	// so a timeout or shutdown closes it from here.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
		logging.LogConnection(c.dialer.Addr(), "destroyed")
	}()

	request := cmd.Request()
	logging.LogFrame("Sending frame", request)
	if _, err := conn.Write(request); err != nil {
		return c.fail(ctx, cmd, n, fmt.Errorf("write failed: %w", err), nil)
	}

	logging.LogCommand(name, stateAwaitingResponse, n)
	frame, err := readFrame(conn)
	if err != nil {
		return c.fail(ctx, cmd, n, err, frame)
	}
	logging.LogFrame("Received frame", frame)

	logging.LogCommand(name, stateValidating, n)
	if !protocol.ChecksumValid(frame) {
		return c.fail(ctx, cmd, n, protocol.ErrChecksumInvalid, frame)
	}
	unescaped := protocol.UnescapeFrame(frame)
	logging.LogFrame("Unescaped frame", unescaped)
	if !protocol.IsExpectedCommandResponse(cmd.Opcode(), unescaped) {
		return c.fail(ctx, cmd, n, fmt.Errorf("%w: sent 0x%02X, got 0x%02X",
			protocol.ErrUnexpectedResponse, cmd.Opcode(), unescaped[2]), frame)
	}

	logging.LogCommand(name, stateDecoding, n)
	payload, err := protocol.ResponsePayload(unescaped)
	if err != nil {
		return c.fail(ctx, cmd, n, err, frame)
	}
	res, err := decode(cmd, payload)
	if err != nil {
		return c.fail(ctx, cmd, n, err, frame)
	}

	logging.LogCommand(name, stateDone, n)
	return res, nil
}

// fail classifies an attempt failure. An I/O error caused by the attempt
// deadline or by shutdown is reported as that instead.
func (c *Client) fail(ctx context.Context, cmd protocol.Command, n int, err error, frame []byte) (result, *CommandError) {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w (%v)", ctxErr, err)
	}
	logging.LogCommand(commandName(cmd), stateFailed, n)
	return result{}, classifyError(cmd, err, frame)
}

// decode dispatches on the closed set of commands.
func decode(cmd protocol.Command, payload []byte) (result, error) {
	switch cmd.(type) {
	case protocol.SystemInfoCommand:
		info, err := protocol.DecodeSystemInfo(payload)
		return result{info: info}, err
	case protocol.ZoneStatesCommand:
		return result{zones: protocol.DecodeZoneStates(payload)}, nil
	default:
		return result{}, fmt.Errorf("unsupported command %T", cmd)
	}
}

// readFrame accumulates reads until a complete frame is buffered. The
// controller may deliver a frame across several reads.
func readFrame(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, 64)
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if protocol.FrameIsComplete(buf) {
			return buf, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, fmt.Errorf("%w: connection closed after %d bytes",
					protocol.ErrFrameIncomplete, len(buf))
			}
			return buf, fmt.Errorf("read failed: %w", err)
		}
		if len(buf) > maxFrameSize {
			return buf, fmt.Errorf("%w: no end marker after %d bytes",
				protocol.ErrFrameIncomplete, len(buf))
		}
	}
}
