package config

import "time"

// CurrentVersion is the only supported config file version
const CurrentVersion = 1

// Transport names
const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
)

// Config represents the entire bridge configuration file.
type Config struct {
	Version  int           `yaml:"version"`
	LogLevel string        `yaml:"log_level,omitempty"`
	Integra  IntegraConfig `yaml:"integra"`
	Zones    []ZoneConfig  `yaml:"zones,omitempty"`
	Server   ServerConfig  `yaml:"server"`
	MQTT     MQTTConfig    `yaml:"mqtt"`
}

// IntegraConfig describes how to reach the alarm controller.
type IntegraConfig struct {
	Transport       string        `yaml:"transport"`             // "tcp" (ETHM-1) or "serial" (INT-RS)
	Host            string        `yaml:"host,omitempty"`        // ETHM-1 address
	Port            int           `yaml:"port,omitempty"`        // ETHM-1 integration port
	SerialPort      string        `yaml:"serial_port,omitempty"` // e.g. /dev/ttyUSB0
	BaudRate        int           `yaml:"baud_rate,omitempty"`   // INT-RS speed
	PollInterval    time.Duration `yaml:"poll_interval"`         // Zone states polling period
	ResponseTimeout time.Duration `yaml:"response_timeout"`      // Per-attempt bound
}

// ZoneConfig names one alarm zone and picks its sensor type.
type ZoneConfig struct {
	Number int    `yaml:"number"` // 1-based zone number
	Name   string `yaml:"name"`
	Type   string `yaml:"type"` // "contact" or "motion"
}

// ServerConfig controls the HTTP API and its mDNS announcement.
type ServerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Listen   string `yaml:"listen"`
	Announce bool   `yaml:"announce"`
}

// MQTTConfig controls the MQTT publisher.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

// Defaults returns a configuration with every optional field filled in.
func Defaults() *Config {
	return &Config{
		Version:  CurrentVersion,
		LogLevel: "info",
		Integra: IntegraConfig{
			Transport:       TransportTCP,
			Port:            7094,
			BaudRate:        19200,
			PollInterval:    time.Second,
			ResponseTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Enabled:  true,
			Listen:   ":8094",
			Announce: true,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			TopicPrefix: "integra",
		},
	}
}

// Example returns the configuration written by "config init".
func Example() *Config {
	cfg := Defaults()
	cfg.Integra.Host = "192.168.1.20"
	cfg.Zones = []ZoneConfig{
		{Number: 1, Name: "Front door", Type: "contact"},
		{Number: 2, Name: "Hall", Type: "motion"},
	}
	return cfg
}
