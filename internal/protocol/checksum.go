package protocol

// ChecksumSeed is the initial value of the running checksum.
const ChecksumSeed = 0x147A

// Checksum computes the Integra frame checksum over an unescaped payload
// (command byte plus data, no markers).
//
// The algorithm is not a standard CRC: each step rotates the 16-bit value
// left by one, complements it, then adds the high byte and the data byte.
// A stuffed FE F0 pair is counted once, so the function gives the same
// result over an escaped window as over the unescaped payload.
func Checksum(payload []byte) uint16 {
	crc := uint16(ChecksumSeed)
	for i := 0; i < len(payload); i++ {
		b := payload[i]
		crc = crc<<1 | crc>>15
		crc ^= 0xFFFF
		crc = crc + crc>>8 + uint16(b)
		if b == FrameMarker && i+1 < len(payload) && payload[i+1] == EscapeByte {
			i++
		}
	}
	return crc
}

// ChecksumBytes returns the checksum split into its transmitted high and
// low bytes.
func ChecksumBytes(payload []byte) (hi, lo byte) {
	crc := Checksum(payload)
	return byte(crc >> 8), byte(crc)
}
