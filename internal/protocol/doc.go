// Package protocol implements the Satel Integra integration protocol.
//
// This package handles framing, byte stuffing, checksum calculation and
// response decoding for the binary protocol spoken by Integra alarm
// controllers through an ETHM-1 Plus (TCP) or INT-RS (serial) module.
//
// # Frame Format
//
// Every request and response uses the same frame layout:
//   - Start marker: 0xFE 0xFE
//   - Command byte (opcode)
//   - Data bytes: variable length
//   - Checksum: 2 bytes, high byte first
//   - End marker: 0xFE 0x0D
//
// Any 0xFE inside the command, data or checksum is transmitted as 0xFE 0xF0.
// The checksum covers the unescaped command and data bytes only.
//
// # Commands
//
// Two commands are implemented:
//   - 0x7E: system info (model code and firmware version)
//   - 0x00 0x01: zone violation bitmap
//
// Command is a closed interface; SystemInfoCommand and ZoneStatesCommand are
// its only implementations, and their responses are decoded with
// DecodeSystemInfo and DecodeZoneStates.
//
// # Usage Example
//
//	cmd := protocol.ZoneStatesCommand{}
//	_, err := conn.Write(cmd.Request())
//
//	// ... read until protocol.FrameIsComplete(buf) ...
//
//	if !protocol.ChecksumValid(buf) {
//	    return protocol.ErrChecksumInvalid
//	}
//	frame := protocol.UnescapeFrame(buf)
//	payload, err := protocol.ResponsePayload(frame)
//	zones := protocol.DecodeZoneStates(payload)
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package protocol
