package main

import (
	"errors"
	"testing"

	"github.com/muurk/integra-bridge/internal/protocol"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"spaced", []string{"FE FE 7E D8 60 FE 0D"}, "FE FE 7E D8 60 FE 0D"},
		{"per byte", []string{"fe", "fe", "7e", "d8", "60", "fe", "0d"}, "FE FE 7E D8 60 FE 0D"},
		{"compact", []string{"fefe7ed860fe0d"}, "FE FE 7E D8 60 FE 0D"},
		{"prefixed", []string{"0xFE:0xFE"}, "FE FE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHex(tt.args)
			if err != nil {
				t.Fatalf("parseHex() error = %v", err)
			}
			if s := protocol.PrettyPrint(got); s != tt.want {
				t.Errorf("parseHex() = %s, want %s", s, tt.want)
			}
		})
	}

	if _, err := parseHex([]string{"FE F"}); err == nil {
		t.Error("parseHex() accepted an odd number of digits")
	}
}

func TestAnalyzeFrame(t *testing.T) {
	t.Run("system info response", func(t *testing.T) {
		frame, _ := parseHex([]string{"FE FE 7E 42 31 31 32 32 30 32 30 30 31 31 35 F9 4F FE 0D"})
		r := analyzeFrame(frame)

		if !r.Complete || !r.ChecksumOK || r.DecodeErr != nil {
			t.Fatalf("report = %+v", r)
		}
		if r.Opcode != protocol.OpcodeSystemInfo {
			t.Errorf("Opcode = 0x%02X", r.Opcode)
		}
		if r.Info == nil || r.Info.Model != "INTEGRA 64 PLUS" || r.Info.Version != "1.12 2020-01-15" {
			t.Errorf("Info = %+v", r.Info)
		}
	})

	t.Run("zone states response", func(t *testing.T) {
		frame, _ := parseHex([]string{"FE FE 00 01 02 00 00 00 00 00 00 00 00 00 00 00 00 00 00 32 86 FE 0D"})
		r := analyzeFrame(frame)

		if !r.ChecksumOK || r.DecodeErr != nil {
			t.Fatalf("report = %+v", r)
		}
		if !r.Zones.Equal(protocol.ZoneStates{1, 10}) {
			t.Errorf("Zones = %v, want [1 10]", r.Zones)
		}
	})

	t.Run("bad checksum still decodes", func(t *testing.T) {
		frame, _ := parseHex([]string{"FE FE 00 01 02 00 00 00 00 00 00 00 00 00 00 00 00 00 00 32 87 FE 0D"})
		r := analyzeFrame(frame)

		if r.ChecksumOK {
			t.Error("ChecksumOK = true for a corrupted frame")
		}
		if len(r.Zones) != 2 {
			t.Errorf("Zones = %v", r.Zones)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		frame, _ := parseHex([]string{"FE FE 7E D8"})
		r := analyzeFrame(frame)

		if r.Complete || !errors.Is(r.DecodeErr, protocol.ErrFrameIncomplete) {
			t.Errorf("report = %+v", r)
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		frame := protocol.BuildFrame(append([]byte{protocol.OpcodeSystemInfo, 0x63}, "11220200115"...))
		r := analyzeFrame(frame)

		if !errors.Is(r.DecodeErr, protocol.ErrUnknownModel) {
			t.Errorf("DecodeErr = %v, want ErrUnknownModel", r.DecodeErr)
		}
	})
}
