package protocol

import "sort"

// ZoneStates is the ascending list of violated zone numbers (1-based).
type ZoneStates []int

// Contains reports whether zone n is violated.
func (z ZoneStates) Contains(n int) bool {
	i := sort.SearchInts(z, n)
	return i < len(z) && z[i] == n
}

// Equal reports whether both snapshots list the same zones.
func (z ZoneStates) Equal(other ZoneStates) bool {
	if len(z) != len(other) {
		return false
	}
	for i := range z {
		if z[i] != other[i] {
			return false
		}
	}
	return true
}

// DecodeZoneStates decodes a zone violation bitmap.
//
// Each byte covers eight zones and is read least significant bit first:
// bit 0 of the first byte is zone 1, bit 7 of the first byte is zone 8,
// bit 0 of the second byte is zone 9, and so on.
func DecodeZoneStates(bitmap []byte) ZoneStates {
	zones := ZoneStates{}
	for i, b := range bitmap {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				zones = append(zones, i*8+bit+1)
			}
		}
	}
	return zones
}
