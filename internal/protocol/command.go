package protocol

import "fmt"

// Command opcodes
const (
	OpcodeZoneStates byte = 0x00 // Zones violation
	OpcodeSystemInfo byte = 0x7E // Integra version / model

	// ZoneStatesSubCommand follows the zone states opcode in every request
	ZoneStatesSubCommand byte = 0x01
)

// Command is one of the requests the bridge knows how to send.
//
// The set is closed: SystemInfoCommand and ZoneStatesCommand are the only
// implementations, and executors switch on the concrete type to pick the
// matching decoder.
type Command interface {
	// Opcode is the command byte echoed back in the response.
	Opcode() byte
	// Request returns the complete wire frame for this command.
	Request() []byte

	command()
}

// SystemInfoCommand asks the controller for its model and firmware version.
type SystemInfoCommand struct{}

func (SystemInfoCommand) Opcode() byte { return OpcodeSystemInfo }

func (SystemInfoCommand) Request() []byte {
	return BuildFrame([]byte{OpcodeSystemInfo})
}

func (SystemInfoCommand) String() string { return "system_info" }

func (SystemInfoCommand) command() {}

// ZoneStatesCommand asks for the bitmap of currently violated zones.
type ZoneStatesCommand struct{}

func (ZoneStatesCommand) Opcode() byte { return OpcodeZoneStates }

func (ZoneStatesCommand) Request() []byte {
	return BuildFrame([]byte{OpcodeZoneStates, ZoneStatesSubCommand})
}

func (ZoneStatesCommand) String() string { return "zone_states" }

func (ZoneStatesCommand) command() {}

// CommandName returns a human-readable name for an opcode
func CommandName(opcode byte) string {
	switch opcode {
	case OpcodeZoneStates:
		return "zone_states"
	case OpcodeSystemInfo:
		return "system_info"
	default:
		return fmt.Sprintf("unknown(0x%02X)", opcode)
	}
}
