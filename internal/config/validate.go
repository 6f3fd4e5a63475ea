package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/logging"
)

// MaxZone is the highest zone number of the largest controller
const MaxZone = 256

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs, c.Integra.validate()...)
	errs = append(errs, validateZones(c.Zones)...)

	if c.Server.Enabled && c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required when the server is enabled"))
	}
	if c.MQTT.Enabled {
		errs = append(errs, c.MQTT.validate()...)
	}

	return errors.Join(errs...)
}

func (i IntegraConfig) validate() []error {
	var errs []error

	switch i.Transport {
	case TransportTCP:
		if i.Host == "" {
			errs = append(errs, errors.New("integra.host is required for tcp transport"))
		}
		if i.Port < 1 || i.Port > 65535 {
			errs = append(errs, fmt.Errorf("integra.port %d out of range", i.Port))
		}
	case TransportSerial:
		if i.SerialPort == "" {
			errs = append(errs, errors.New("integra.serial_port is required for serial transport"))
		}
		if i.BaudRate <= 0 {
			errs = append(errs, fmt.Errorf("integra.baud_rate must be positive, got %d", i.BaudRate))
		}
	default:
		errs = append(errs, fmt.Errorf("integra.transport must be %q or %q, got %q",
			TransportTCP, TransportSerial, i.Transport))
	}

	if i.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("integra.poll_interval must be positive, got %s", i.PollInterval))
	}
	if i.ResponseTimeout <= 0 {
		errs = append(errs, fmt.Errorf("integra.response_timeout must be positive, got %s", i.ResponseTimeout))
	}
	return errs
}

func validateZones(zones []ZoneConfig) []error {
	var errs []error
	seen := make(map[int]bool, len(zones))

	for i, z := range zones {
		if z.Number < 1 || z.Number > MaxZone {
			errs = append(errs, fmt.Errorf("zones[%d]: number %d out of range 1-%d", i, z.Number, MaxZone))
		} else if seen[z.Number] {
			errs = append(errs, fmt.Errorf("zones[%d]: zone %d configured more than once", i, z.Number))
		}
		seen[z.Number] = true

		if strings.TrimSpace(z.Name) == "" {
			errs = append(errs, fmt.Errorf("zones[%d]: name is required", i))
		}
		if _, err := accessory.ParseZoneType(z.Type); err != nil {
			errs = append(errs, fmt.Errorf("zones[%d]: %w", i, err))
		}
	}
	return errs
}

func (m MQTTConfig) validate() []error {
	var errs []error
	if m.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	} else if u, err := url.Parse(m.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("mqtt.broker %q is not a broker URL (e.g. tcp://host:1883)", m.Broker))
	}
	if strings.Trim(m.TopicPrefix, "/") == "" {
		errs = append(errs, errors.New("mqtt.topic_prefix is required when mqtt is enabled"))
	}
	return errs
}

// Accessories converts the configured zones into sensors. Call it on a
// validated Config.
func (c *Config) Accessories() (*accessory.Set, error) {
	zones := make([]accessory.Zone, 0, len(c.Zones))
	for _, z := range c.Zones {
		typ, err := accessory.ParseZoneType(z.Type)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", z.Number, err)
		}
		zones = append(zones, accessory.NewZone(z.Number, z.Name, typ))
	}
	return accessory.NewSet(zones)
}
