package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/integra-bridge/internal/protocol"
	"github.com/muurk/integra-bridge/internal/ui"
)

// decodeCmd inspects a captured frame offline
var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode a captured frame",
	Long: `Check and decode a raw frame, e.g. one copied from a debug log.

The frame is given as hex. Spaces between bytes are allowed, so a frame can
be pasted as one argument or as one argument per byte. Responses to the
system info and zone states commands are decoded.`,
	Example: `  # System info request
  integra-bridge decode "FE FE 7E D8 60 FE 0D"

  # Zone states response with zones 1 and 10 violated, unquoted
  integra-bridge decode FE FE 00 01 02 00 00 00 00 00 00 00 00 00 00 00 00 00 00 32 86 FE 0D`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

// frameReport is everything decode learns about one frame
type frameReport struct {
	Complete   bool
	ChecksumOK bool
	Unescaped  []byte
	Opcode     byte
	Payload    []byte
	Info       *protocol.SystemInfo
	Zones      protocol.ZoneStates
	DecodeErr  error
}

func parseHex(args []string) ([]byte, error) {
	s := strings.Join(args, "")
	s = strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(s)
	frame, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return frame, nil
}

// analyzeFrame runs a frame through the same checks the executor applies.
func analyzeFrame(frame []byte) frameReport {
	r := frameReport{
		Complete:   protocol.FrameIsComplete(frame),
		ChecksumOK: protocol.ChecksumValid(frame),
	}
	if !r.Complete {
		r.DecodeErr = protocol.ErrFrameIncomplete
		return r
	}

	r.Unescaped = protocol.UnescapeFrame(frame)
	if len(r.Unescaped) > 2 {
		r.Opcode = r.Unescaped[2]
	}
	payload, err := protocol.ResponsePayload(r.Unescaped)
	if err != nil {
		r.DecodeErr = err
		return r
	}
	r.Payload = payload

	switch r.Opcode {
	case protocol.OpcodeSystemInfo:
		info, err := protocol.DecodeSystemInfo(payload)
		if err != nil {
			r.DecodeErr = err
			return r
		}
		r.Info = &info
	case protocol.OpcodeZoneStates:
		r.Zones = protocol.DecodeZoneStates(payload)
	}
	return r
}

func runDecode(cmd *cobra.Command, args []string) error {
	frame, err := parseHex(args)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	r := analyzeFrame(frame)

	fields := []ui.Field{
		{Key: "Frame", Value: protocol.PrettyPrint(frame)},
		{Key: "Complete", Value: fmt.Sprint(r.Complete)},
		{Key: "Checksum", Value: checksumLabel(r.ChecksumOK)},
	}
	if r.Unescaped != nil {
		fields = append(fields,
			ui.Field{Key: "Command", Value: fmt.Sprintf("0x%02X (%s)", r.Opcode, protocol.CommandName(r.Opcode))},
			ui.Field{Key: "Payload", Value: protocol.PrettyPrint(r.Payload)},
		)
	}

	if r.DecodeErr != nil {
		printer.PrintHeader("Decode", "integra-bridge decode", fields...)
		printer.PrintError("Frame could not be decoded", r.DecodeErr, nil)
		return errReported
	}

	switch {
	case r.Info != nil:
		fields = append(fields, ui.InfoFields(*r.Info)...)
	case r.Opcode == protocol.OpcodeZoneStates:
		fields = append(fields, ui.Field{Key: "Violated", Value: zonesLabel(r.Zones)})
	}

	if !r.ChecksumOK {
		printer.PrintError("Checksum mismatch", protocol.ErrChecksumInvalid, nil)
	}
	printer.PrintSuccess("Frame decoded", fields...)
	return nil
}

func checksumLabel(ok bool) string {
	if ok {
		return "valid"
	}
	return "INVALID"
}

func zonesLabel(zones protocol.ZoneStates) string {
	if len(zones) == 0 {
		return "none"
	}
	parts := make([]string, len(zones))
	for i, z := range zones {
		parts[i] = fmt.Sprint(z)
	}
	return strings.Join(parts, ", ")
}
