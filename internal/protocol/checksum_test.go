package protocol

import "testing"

func TestChecksum_KnownValues(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    uint16
	}{
		{"empty payload is seed", []byte{}, ChecksumSeed},
		{"system info", []byte{0x7E}, 0xD860},
		{"zone violation", []byte{0x00}, 0xD7E2},
		{"zone violation with sub-command", []byte{0x00, 0x01}, 0x508B},
		{"low byte FE", []byte{0x00, 0x74}, 0x50FE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.payload); got != tt.want {
				t.Errorf("Checksum(%s) = 0x%04X, want 0x%04X", PrettyPrint(tt.payload), got, tt.want)
			}
		})
	}
}

func TestChecksum_StuffedPairCountsOnce(t *testing.T) {
	raw := []byte{0x7E, 0xFE, 0x01}
	escaped := []byte{0x7E, 0xFE, 0xF0, 0x01}

	if Checksum(raw) != Checksum(escaped) {
		t.Errorf("Checksum(raw) = 0x%04X, Checksum(escaped) = 0x%04X, want equal",
			Checksum(raw), Checksum(escaped))
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	payload := []byte{0x7E, 0x48, 0x31, 0x32, 0x32}
	first := Checksum(payload)
	for i := 0; i < 10; i++ {
		if got := Checksum(payload); got != first {
			t.Fatalf("Checksum() call %d = 0x%04X, want 0x%04X", i, got, first)
		}
	}
}

func TestChecksumBytes(t *testing.T) {
	hi, lo := ChecksumBytes([]byte{0x00, 0x01})
	if hi != 0x50 || lo != 0x8B {
		t.Errorf("ChecksumBytes() = %02X %02X, want 50 8B", hi, lo)
	}
}
