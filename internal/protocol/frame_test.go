package protocol

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestBuildFrame(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    []byte
	}{
		{
			name:    "system info request",
			payload: []byte{OpcodeSystemInfo},
			want:    []byte{0xFE, 0xFE, 0x7E, 0xD8, 0x60, 0xFE, 0x0D},
		},
		{
			name:    "zone states request",
			payload: []byte{OpcodeZoneStates, ZoneStatesSubCommand},
			want:    []byte{0xFE, 0xFE, 0x00, 0x01, 0x50, 0x8B, 0xFE, 0x0D},
		},
		{
			name:    "payload byte FE is stuffed",
			payload: []byte{0x7E, 0xFE},
			want:    []byte{0xFE, 0xFE, 0x7E, 0xFE, 0xF0, 0x50, 0x8B, 0xFE, 0x0D},
		},
		{
			name:    "checksum low byte FE is stuffed",
			payload: []byte{0x00, 0x74},
			want:    []byte{0xFE, 0xFE, 0x00, 0x74, 0x50, 0xFE, 0xF0, 0xFE, 0x0D},
		},
		{
			name:    "empty payload carries seed checksum",
			payload: []byte{},
			want:    []byte{0xFE, 0xFE, 0x14, 0x7A, 0xFE, 0x0D},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFrame(tt.payload)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("BuildFrame() = %s, want %s", PrettyPrint(got), PrettyPrint(tt.want))
			}
		})
	}
}

func TestBuildFrame_EscapeCount(t *testing.T) {
	payload := []byte{0x01, 0xFE, 0x02, 0xFE, 0xFE, 0x03}
	frame := BuildFrame(payload)

	hi, lo := ChecksumBytes(payload)
	wantLen := 2 + len(payload) + 3 + 2 + 2
	if hi == FrameMarker {
		wantLen++
	}
	if lo == FrameMarker {
		wantLen++
	}
	if len(frame) != wantLen {
		t.Fatalf("frame length = %d, want %d (%s)", len(frame), wantLen, PrettyPrint(frame))
	}

	body := frame[2 : 2+len(payload)+3]
	for i, b := range body {
		if b == FrameMarker && body[i+1] != EscapeByte {
			t.Errorf("FE at offset %d not followed by F0: %s", i, PrettyPrint(frame))
		}
	}
}

func TestFrameIsComplete(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want bool
	}{
		{"complete frame", []byte{0xFE, 0xFE, 0x7E, 0xD8, 0x60, 0xFE, 0x0D}, true},
		{"missing end marker", []byte{0xFE, 0xFE, 0x7E, 0xD8, 0x60}, false},
		{"missing trailing 0D", []byte{0xFE, 0xFE, 0x7E, 0xD8, 0x60, 0xFE}, false},
		{"bad start marker", []byte{0xFE, 0x00, 0x7E, 0xD8, 0x60, 0xFE, 0x0D}, false},
		{"empty", nil, false},
		{"too short", []byte{0xFE, 0xFE, 0x0D}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameIsComplete(tt.buf); got != tt.want {
				t.Errorf("FrameIsComplete(%s) = %v, want %v", PrettyPrint(tt.buf), got, tt.want)
			}
		})
	}
}

func TestChecksumValid(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  bool
	}{
		{"system info request", BuildFrame([]byte{0x7E}), true},
		{"zone states request", BuildFrame([]byte{0x00, 0x01}), true},
		{"stuffed payload byte", BuildFrame([]byte{0x7E, 0xFE}), true},
		{"stuffed checksum low byte", BuildFrame([]byte{0x00, 0x74}), true},
		{
			name:  "system info response",
			frame: BuildFrame(append([]byte{0x7E, 0x48}, []byte("11220200115")...)),
			want:  true,
		},
		{"corrupted high byte", []byte{0xFE, 0xFE, 0x7E, 0xD9, 0x60, 0xFE, 0x0D}, false},
		{"corrupted low byte", []byte{0xFE, 0xFE, 0x7E, 0xD8, 0x61, 0xFE, 0x0D}, false},
		{"corrupted payload", []byte{0xFE, 0xFE, 0x00, 0x02, 0x50, 0x8B, 0xFE, 0x0D}, false},
		{"too short", []byte{0xFE, 0xFE, 0xFE, 0x0D}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChecksumValid(tt.frame); got != tt.want {
				t.Errorf("ChecksumValid(%s) = %v, want %v", PrettyPrint(tt.frame), got, tt.want)
			}
		})
	}
}

func TestUnescapeFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  []byte
	}{
		{
			name:  "no escapes",
			frame: []byte{0xFE, 0xFE, 0x7E, 0xD8, 0x60, 0xFE, 0x0D},
			want:  []byte{0xFE, 0xFE, 0x7E, 0xD8, 0x60, 0xFE, 0x0D},
		},
		{
			name:  "escaped payload and checksum",
			frame: []byte{0xFE, 0xFE, 0x00, 0xFE, 0xF0, 0x50, 0xFE, 0xF0, 0xFE, 0x0D},
			want:  []byte{0xFE, 0xFE, 0x00, 0xFE, 0x50, 0xFE, 0xFE, 0x0D},
		},
		{
			name:  "F0 not after FE is kept",
			frame: []byte{0xFE, 0xFE, 0x00, 0xF0, 0xF0, 0xFE, 0x0D},
			want:  []byte{0xFE, 0xFE, 0x00, 0xF0, 0xF0, 0xFE, 0x0D},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnescapeFrame(tt.frame)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("UnescapeFrame() = %s, want %s", PrettyPrint(got), PrettyPrint(tt.want))
			}
		})
	}
}

// randomPayload avoids the sequences the stuffing scheme cannot represent:
// a genuine F0 directly after FE, or a leading F0 right after the markers.
func randomPayload(r *rand.Rand) []byte {
	p := make([]byte, 1+r.Intn(40))
	for i := range p {
		p[i] = byte(r.Intn(256))
		if i%5 == 0 {
			p[i] = FrameMarker
		}
		if p[i] == EscapeByte && (i == 0 || p[i-1] == FrameMarker) {
			p[i] = 0x00
		}
	}
	return p
}

func TestFrameRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		payload := randomPayload(r)
		frame := BuildFrame(payload)

		if !FrameIsComplete(frame) {
			t.Fatalf("frame not complete: %s", PrettyPrint(frame))
		}
		if !ChecksumValid(frame) {
			t.Fatalf("checksum invalid for payload %s: %s", PrettyPrint(payload), PrettyPrint(frame))
		}

		unescaped := UnescapeFrame(frame)
		got := unescaped[2 : len(unescaped)-4]
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip = %s, want %s", PrettyPrint(got), PrettyPrint(payload))
		}
	}
}

func TestIsExpectedCommandResponse(t *testing.T) {
	resp := []byte{0xFE, 0xFE, 0x7E, 0x48, 0x00, 0x00, 0xFE, 0x0D}
	if !IsExpectedCommandResponse(OpcodeSystemInfo, resp) {
		t.Error("expected 0x7E response to match system info opcode")
	}
	if IsExpectedCommandResponse(OpcodeZoneStates, resp) {
		t.Error("0x7E response should not match zone states opcode")
	}
	if IsExpectedCommandResponse(OpcodeZoneStates, []byte{0xFE, 0xFE}) {
		t.Error("truncated response should not match")
	}
}

func TestResponsePayload(t *testing.T) {
	frame := UnescapeFrame(BuildFrame([]byte{0x00, 0x01, 0x80, 0xFE}))
	payload, err := ResponsePayload(frame)
	if err != nil {
		t.Fatalf("ResponsePayload() error = %v", err)
	}
	if !bytes.Equal(payload, []byte{0x01, 0x80, 0xFE}) {
		t.Errorf("payload = %s, want 01 80 FE", PrettyPrint(payload))
	}

	_, err = ResponsePayload([]byte{0xFE, 0xFE, 0xFE, 0x0D})
	if !errors.Is(err, ErrFrameIncomplete) {
		t.Errorf("short frame error = %v, want ErrFrameIncomplete", err)
	}
}

func TestPrettyPrint(t *testing.T) {
	got := PrettyPrint([]byte{0xFE, 0xFE, 0x7E, 0x0a, 0x00})
	if got != "FE FE 7E 0A 00" {
		t.Errorf("PrettyPrint() = %q", got)
	}
	if PrettyPrint(nil) != "" {
		t.Error("PrettyPrint(nil) should be empty")
	}
}
