package protocol

import (
	"fmt"
	"strings"
)

// Frame marker constants
const (
	FrameMarker = 0xFE // Start marker, end marker prefix, and escaped byte
	EscapeByte  = 0xF0 // Injected after every FE inside frame content
	FrameEnd    = 0x0D // Last byte of every frame

	// MinFrameSize is a frame with an empty payload: FE FE hi lo FE 0D
	MinFrameSize = 6
)

// BuildFrame wraps a payload in start/end markers and appends its checksum.
//
// Frame structure:
//
//	FE FE cmd d1 d2 ... dn crc.hi crc.lo FE 0D
//
// Any FE in cmd, data or the checksum bytes is sent as FE F0. The checksum
// is computed over the unescaped payload.
func BuildFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+MinFrameSize+2)
	frame = append(frame, FrameMarker, FrameMarker)
	for _, b := range payload {
		frame = appendEscaped(frame, b)
	}

	hi, lo := ChecksumBytes(payload)
	frame = appendEscaped(frame, hi)
	frame = appendEscaped(frame, lo)

	return append(frame, FrameMarker, FrameEnd)
}

func appendEscaped(frame []byte, b byte) []byte {
	frame = append(frame, b)
	if b == FrameMarker {
		frame = append(frame, EscapeByte)
	}
	return frame
}

// FrameIsComplete reports whether buf holds a whole frame: two leading
// markers and a trailing FE 0D. The transport keeps reading until this
// returns true.
func FrameIsComplete(buf []byte) bool {
	n := len(buf)
	if n < 4 {
		return false
	}
	return buf[0] == FrameMarker && buf[1] == FrameMarker &&
		buf[n-1] == FrameEnd && buf[n-2] == FrameMarker
}

// ChecksumValid verifies the checksum of a complete, still escaped frame.
//
// The checksum start is found by walking back from the end marker: either
// checksum byte may have been stuffed with a trailing F0, which shifts its
// position by one.
func ChecksumValid(frame []byte) bool {
	if len(frame) < MinFrameSize {
		return false
	}

	crcStart := len(frame) - 4
	if frame[crcStart] == FrameMarker {
		crcStart--
	}
	if frame[crcStart-1] == FrameMarker {
		crcStart--
	}
	if crcStart < 2 {
		return false
	}

	window := frame[2:crcStart]
	crc := frame[crcStart:]
	hi, lo := ChecksumBytes(window)

	if hi != crc[0] {
		return false
	}
	if crc[0] != FrameMarker && lo != crc[1] {
		return false
	} else if crc[0] == FrameMarker && lo != crc[2] {
		return false
	}
	return true
}

// UnescapeFrame removes every F0 that immediately follows an FE.
func UnescapeFrame(frame []byte) []byte {
	out := make([]byte, 0, len(frame))
	for i, b := range frame {
		if b == EscapeByte && i > 0 && frame[i-1] == FrameMarker {
			continue
		}
		out = append(out, b)
	}
	return out
}

// IsExpectedCommandResponse reports whether an unescaped response echoes
// the opcode that was sent. The opcode sits right after the two markers.
func IsExpectedCommandResponse(opcode byte, unescaped []byte) bool {
	return len(unescaped) > 2 && unescaped[2] == opcode
}

// ResponsePayload strips the markers, the echoed opcode, the checksum pair
// and the end marker from an unescaped response frame.
func ResponsePayload(unescaped []byte) ([]byte, error) {
	if len(unescaped) < MinFrameSize+1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameIncomplete, len(unescaped))
	}
	return unescaped[3 : len(unescaped)-4], nil
}

// PrettyPrint formats a frame as space separated uppercase hex, e.g.
// "FE FE 7E D8 60 FE 0D".
func PrettyPrint(frame []byte) string {
	var b strings.Builder
	for i, v := range frame {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}
