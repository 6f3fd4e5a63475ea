package accessory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/muurk/integra-bridge/internal/protocol"
)

// ZoneType selects how a zone is presented
type ZoneType string

const (
	// Contact zones are doors and windows: violated means open
	Contact ZoneType = "contact"
	// Motion zones are PIR detectors: violated means motion detected
	Motion ZoneType = "motion"
)

// ParseZoneType validates a configured zone type
func ParseZoneType(s string) (ZoneType, error) {
	switch ZoneType(s) {
	case Contact, Motion:
		return ZoneType(s), nil
	default:
		return "", fmt.Errorf("unknown zone type %q (want %q or %q)", s, Contact, Motion)
	}
}

// Sensor state values
const (
	StateOpen     = "open"
	StateClosed   = "closed"
	StateMotion   = "motion"
	StateNoMotion = "clear"
)

// namespace seeds the stable accessory IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/muurk/integra-bridge/zone"))

// Zone is one configured zone exposed as a sensor.
type Zone struct {
	ID     uuid.UUID `json:"id"`
	Number int       `json:"number"`
	Name   string    `json:"name"`
	Type   ZoneType  `json:"type"`
}

// NewZone builds a Zone. The ID depends only on the zone number so it
// stays the same across renames and restarts.
func NewZone(number int, name string, typ ZoneType) Zone {
	return Zone{
		ID:     ZoneID(number),
		Number: number,
		Name:   name,
		Type:   typ,
	}
}

// ZoneID returns the stable ID for a zone number
func ZoneID(number int) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("zone-%d", number)))
}

// SensorState is the state of one zone derived from a snapshot.
type SensorState struct {
	Zone
	Violated bool   `json:"violated"`
	State    string `json:"state"`
}

// State derives the sensor state of z from a violated zones snapshot.
func (z Zone) State(violated protocol.ZoneStates) SensorState {
	v := violated.Contains(z.Number)
	return SensorState{Zone: z, Violated: v, State: stateName(z.Type, v)}
}

func stateName(typ ZoneType, violated bool) string {
	switch typ {
	case Motion:
		if violated {
			return StateMotion
		}
		return StateNoMotion
	default:
		if violated {
			return StateOpen
		}
		return StateClosed
	}
}

// Set is the collection of configured zones, ordered by number.
type Set struct {
	zones []Zone
	byNum map[int]int
}

// NewSet builds a Set. Duplicate zone numbers are rejected.
func NewSet(zones []Zone) (*Set, error) {
	s := &Set{byNum: make(map[int]int, len(zones))}
	sorted := append([]Zone(nil), zones...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	for i, z := range sorted {
		if _, dup := s.byNum[z.Number]; dup {
			return nil, fmt.Errorf("zone %d configured more than once", z.Number)
		}
		s.byNum[z.Number] = i
	}
	s.zones = sorted
	return s, nil
}

// Zones returns the configured zones
func (s *Set) Zones() []Zone {
	return append([]Zone(nil), s.zones...)
}

// Len returns the number of configured zones
func (s *Set) Len() int {
	return len(s.zones)
}

// Lookup returns the zone with the given number
func (s *Set) Lookup(number int) (Zone, bool) {
	i, ok := s.byNum[number]
	if !ok {
		return Zone{}, false
	}
	return s.zones[i], true
}

// States derives the state of every configured zone.
func (s *Set) States(violated protocol.ZoneStates) []SensorState {
	states := make([]SensorState, 0, len(s.zones))
	for _, z := range s.zones {
		states = append(states, z.State(violated))
	}
	return states
}

// Changed returns the configured zones whose violated flag differs between
// two snapshots.
func (s *Set) Changed(prev, next protocol.ZoneStates) []SensorState {
	var changed []SensorState
	for _, z := range s.zones {
		if prev.Contains(z.Number) != next.Contains(z.Number) {
			changed = append(changed, z.State(next))
		}
	}
	return changed
}

// Unconfigured returns the violated zones that have no configured sensor.
func (s *Set) Unconfigured(violated protocol.ZoneStates) []int {
	var out []int
	for _, n := range violated {
		if _, ok := s.byNum[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
