package discovery

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: instance},
		HostName:      host,
		Port:          port,
		AddrIPv4:      v4,
		AddrIPv6:      v6,
		Text:          txt,
	}
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "bridge with IPv4",
			entry:    entry("integra-bridge on pi", "pi.local.", 8094, []net.IP{net.ParseIP("192.168.1.30")}, nil),
			wantIP:   "192.168.1.30",
			wantPort: 8094,
		},
		{
			name:     "custom port",
			entry:    entry("garage", "garage.local.", 9000, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantIP:   "10.0.0.5",
			wantPort: 9000,
		},
		{
			name:     "no port specified (should default to 8094)",
			entry:    entry("garage", "garage.local.", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil),
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name:     "IPv6 only",
			entry:    entry("v6", "v6.local.", 8094, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantIP:   "fe80::1",
			wantPort: 8094,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: entry("dual", "dual.local.", 8094,
				[]net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantIP:   "192.168.1.50",
			wantPort: 8094,
		},
		{
			name:    "no IP address",
			entry:   entry("lost", "lost.local.", 8094, nil, nil),
			wantNil: true,
		},
		{
			name:    "empty instance",
			entry:   entry("", "pi.local.", 8094, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if bridge != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", bridge)
				}
				return
			}

			if bridge == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil bridge")
			}
			if bridge.Instance != tt.entry.Instance {
				t.Errorf("bridge.Instance = %v, want %v", bridge.Instance, tt.entry.Instance)
			}
			if bridge.IP != tt.wantIP {
				t.Errorf("bridge.IP = %v, want %v", bridge.IP, tt.wantIP)
			}
			if bridge.Port != tt.wantPort {
				t.Errorf("bridge.Port = %v, want %v", bridge.Port, tt.wantPort)
			}
			if bridge.Hostname != tt.entry.HostName {
				t.Errorf("bridge.Hostname = %v, want %v", bridge.Hostname, tt.entry.HostName)
			}
			if time.Since(bridge.DiscoveredAt) > time.Second {
				t.Errorf("bridge.DiscoveredAt is not recent: %v", bridge.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	e := entry("pi", "pi.local.", 8094, []net.IP{net.ParseIP("192.168.1.30")}, nil,
		"model=INTEGRA 64 PLUS", "version=1.19 2020-07-03", "controller=192.168.1.20:7094", "flag")

	bridge := scanner.parseServiceEntry(e)
	if bridge == nil {
		t.Fatal("parseServiceEntry() = nil, want bridge")
	}

	want := map[string]string{
		TxtModel:      "INTEGRA 64 PLUS",
		TxtVersion:    "1.19 2020-07-03",
		TxtController: "192.168.1.20:7094",
		"flag":        "",
	}
	if !reflect.DeepEqual(bridge.Metadata, want) {
		t.Errorf("bridge.Metadata = %v, want %v", bridge.Metadata, want)
	}
	if got := bridge.String(); got != "pi at 192.168.1.30:8094 (INTEGRA 64 PLUS)" {
		t.Errorf("bridge.String() = %q", got)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestBridge_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		bridge   *Bridge
		expected string
	}{
		{"IPv4", &Bridge{IP: "192.168.4.16", Port: 8094}, "http://192.168.4.16:8094"},
		{"IPv6", &Bridge{IP: "fe80::1", Port: 8094}, "http://[fe80::1]:8094"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bridge.BaseURL(); got != tt.expected {
				t.Errorf("Bridge.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBridge_GetMetadata(t *testing.T) {
	var empty Bridge
	if got := empty.GetMetadata(TxtModel); got != "" {
		t.Errorf("GetMetadata() on nil map = %q, want empty", got)
	}

	b := &Bridge{Metadata: map[string]string{TxtModel: "INTEGRA 32"}}
	if got := b.GetMetadata(TxtModel); got != "INTEGRA 32" {
		t.Errorf("GetMetadata(model) = %q", got)
	}
}

func TestFormatTXT(t *testing.T) {
	got := formatTXT(map[string]string{
		TxtVersion: "1.12 2020-01-15",
		TxtModel:   "INTEGRA 24",
		TxtPath:    "/api",
	})
	want := []string{"model=INTEGRA 24", "path=/api", "version=1.12 2020-01-15"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("formatTXT() = %v, want %v", got, want)
	}

	if round := parseTXT(got); round[TxtModel] != "INTEGRA 24" || round[TxtPath] != "/api" {
		t.Errorf("parseTXT(formatTXT()) = %v", round)
	}
}

func TestDefaultInstance(t *testing.T) {
	if got := DefaultInstance(); got == "" {
		t.Error("DefaultInstance() returned empty string")
	}
}

// Live mDNS tests need multicast and are not run here.
