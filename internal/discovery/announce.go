package discovery

import (
	"fmt"
	"os"
	"sort"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/integra-bridge/internal/logging"
)

// Announcement describes the service a bridge registers
type Announcement struct {
	Instance string            // defaults to "integra-bridge on <hostname>"
	Port     int               // HTTP API port
	Metadata map[string]string // TXT records
}

// Announcer keeps a bridge registered on mDNS until Shutdown
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers the bridge's HTTP service on all interfaces.
func Announce(a Announcement) (*Announcer, error) {
	instance := a.Instance
	if instance == "" {
		instance = DefaultInstance()
	}

	txt := formatTXT(a.Metadata)
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, a.Port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS service announced",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", a.Port),
		zap.Strings("txt", txt),
	)
	return &Announcer{server: server}, nil
}

// SetMetadata replaces the announced TXT records, e.g. once the
// controller model is known.
func (a *Announcer) SetMetadata(metadata map[string]string) {
	a.server.SetText(formatTXT(metadata))
}

// Shutdown withdraws the announcement
func (a *Announcer) Shutdown() {
	a.server.Shutdown()
	logging.Debug("mDNS service withdrawn")
}

// DefaultInstance returns the instance name used when none is configured
func DefaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "integra-bridge"
	}
	return "integra-bridge on " + host
}

// formatTXT renders metadata as sorted "key=value" records.
func formatTXT(metadata map[string]string) []string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	txt := make([]string, 0, len(keys))
	for _, k := range keys {
		txt = append(txt, k+"="+metadata[k])
	}
	return txt
}
