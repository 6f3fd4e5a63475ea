package protocol

import "fmt"

// versionLength is the length of the raw firmware version string, e.g.
// "11220200115" for 1.12 2020-01-15.
const versionLength = 11

// SystemInfo describes the controller model and its resource counts.
type SystemInfo struct {
	ModelCode  byte   `json:"model_code"`
	Model      string `json:"model"`
	Version    string `json:"version"`
	Zones      int    `json:"zones"`
	Outputs    int    `json:"outputs"`
	Partitions int    `json:"partitions"`
	Objects    int    `json:"objects"`
	Timers     int    `json:"timers"`
}

func (s SystemInfo) String() string {
	return fmt.Sprintf("%s v%s (zones=%d, outputs=%d, partitions=%d)",
		s.Model, s.Version, s.Zones, s.Outputs, s.Partitions)
}

// family holds the fixed resource counts of one hardware family.
type family struct {
	name       string
	zones      int
	outputs    int
	partitions int
	objects    int
	timers     int
}

// models maps the "integra model" byte to its hardware family.
var models = map[byte]family{
	0:   {"INTEGRA 24", 24, 20, 4, 0, 16},
	1:   {"INTEGRA 32", 32, 32, 16, 4, 28},
	2:   {"INTEGRA 64", 64, 64, 32, 8, 64},
	66:  {"INTEGRA 64 PLUS", 64, 64, 32, 8, 64},
	3:   {"INTEGRA 128", 128, 128, 32, 8, 64},
	4:   {"INTEGRA 128-WRL SIM300", 128, 128, 32, 8, 64},
	67:  {"INTEGRA 128 PLUS", 128, 128, 32, 8, 64},
	132: {"INTEGRA 128-WRL LEON", 128, 128, 32, 8, 64},
	72:  {"INTEGRA 256 PLUS", 256, 256, 32, 8, 64},
}

// ModelName returns the family name for a model byte, or false if unknown.
func ModelName(code byte) (string, bool) {
	fam, ok := models[code]
	return fam.name, ok
}

// DecodeSystemInfo decodes the payload of a 0x7E response.
//
// Payload layout:
//
//	[0]     model code
//	[1-11]  version "MmmYYYYMMDD" (major, minor, date)
//
// Further bytes (language, settings flags) are ignored.
func DecodeSystemInfo(payload []byte) (SystemInfo, error) {
	if len(payload) == 0 {
		return SystemInfo{}, fmt.Errorf("%w: empty system info", ErrShortPayload)
	}

	code := payload[0]
	fam, ok := models[code]
	if !ok {
		return SystemInfo{}, fmt.Errorf("%w: %d", ErrUnknownModel, code)
	}
	if len(payload) < 1+versionLength {
		return SystemInfo{}, fmt.Errorf("%w: system info needs %d bytes, got %d",
			ErrShortPayload, 1+versionLength, len(payload))
	}

	return SystemInfo{
		ModelCode:  code,
		Model:      fam.name,
		Version:    formatVersion(string(payload[1 : 1+versionLength])),
		Zones:      fam.zones,
		Outputs:    fam.outputs,
		Partitions: fam.partitions,
		Objects:    fam.objects,
		Timers:     fam.timers,
	}, nil
}

// formatVersion turns "11220200115" into "1.12 2020-01-15".
func formatVersion(raw string) string {
	return fmt.Sprintf("%s.%s %s-%s-%s", raw[0:1], raw[1:3], raw[3:7], raw[7:9], raw[9:11])
}
