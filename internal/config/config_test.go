package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "integra-bridge") {
		t.Errorf("GetConfigDir() = %v, should contain 'integra-bridge'", configDir)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only honoured on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "integra-bridge"); configDir != want {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Integra.Transport != TransportTCP {
		t.Errorf("Transport = %q, want tcp", cfg.Integra.Transport)
	}
	if cfg.Integra.Port != 7094 {
		t.Errorf("Port = %d, want 7094", cfg.Integra.Port)
	}
	if cfg.Integra.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.Integra.PollInterval)
	}
	if cfg.Integra.ResponseTimeout != 5*time.Second {
		t.Errorf("ResponseTimeout = %v, want 5s", cfg.Integra.ResponseTimeout)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT should be disabled by default")
	}

	// Defaults lack a host, so they are not valid on their own
	if err := cfg.Validate(); err == nil {
		t.Error("Defaults().Validate() should require integra.host")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
version: 1
log_level: debug
integra:
  host: 10.0.0.5
  poll_interval: 500ms
zones:
  - number: 3
    name: Garage
    type: motion
mqtt:
  enabled: true
  broker: tcp://broker.local:1883
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Integra.Host != "10.0.0.5" {
		t.Errorf("Host = %q", cfg.Integra.Host)
	}
	if cfg.Integra.Port != 7094 {
		t.Errorf("Port = %d, want default 7094", cfg.Integra.Port)
	}
	if cfg.Integra.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.Integra.PollInterval)
	}
	if cfg.Integra.ResponseTimeout != 5*time.Second {
		t.Errorf("ResponseTimeout = %v, want default 5s", cfg.Integra.ResponseTimeout)
	}
	if len(cfg.Zones) != 1 || cfg.Zones[0].Name != "Garage" {
		t.Errorf("Zones = %+v", cfg.Zones)
	}
	if cfg.MQTT.TopicPrefix != "integra" {
		t.Errorf("TopicPrefix = %q, want default", cfg.MQTT.TopicPrefix)
	}
	if !cfg.Server.Enabled {
		t.Error("Server.Enabled should keep its default")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "bad yaml",
			data:    "integra: [",
			wantErr: "failed to parse",
		},
		{
			name:    "wrong version",
			data:    "version: 2\nintegra:\n  host: a",
			wantErr: "unsupported config version",
		},
		{
			name:    "bad duration",
			data:    "integra:\n  host: a\n  poll_interval: soon",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid example",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Integra.Transport = "udp" },
			wantErr: "integra.transport",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Integra.Port = 70000 },
			wantErr: "integra.port",
		},
		{
			name: "serial without port",
			mutate: func(c *Config) {
				c.Integra.Transport = TransportSerial
			},
			wantErr: "integra.serial_port",
		},
		{
			name: "serial valid",
			mutate: func(c *Config) {
				c.Integra.Transport = TransportSerial
				c.Integra.Host = ""
				c.Integra.SerialPort = "/dev/ttyUSB0"
			},
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Integra.PollInterval = 0 },
			wantErr: "poll_interval",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Integra.ResponseTimeout = -time.Second },
			wantErr: "response_timeout",
		},
		{
			name:    "zone out of range",
			mutate:  func(c *Config) { c.Zones[0].Number = 257 },
			wantErr: "out of range",
		},
		{
			name:    "duplicate zone",
			mutate:  func(c *Config) { c.Zones[1].Number = c.Zones[0].Number },
			wantErr: "more than once",
		},
		{
			name:    "unknown zone type",
			mutate:  func(c *Config) { c.Zones[0].Type = "smoke" },
			wantErr: "unknown zone type",
		},
		{
			name:    "empty zone name",
			mutate:  func(c *Config) { c.Zones[0].Name = " " },
			wantErr: "name is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "loud",
		},
		{
			name: "mqtt without broker",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker = ""
			},
			wantErr: "mqtt.broker",
		},
		{
			name: "mqtt bad broker url",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker = "localhost"
			},
			wantErr: "mqtt.broker",
		},
		{
			name: "server without listen",
			mutate: func(c *Config) {
				c.Server.Listen = ""
			},
			wantErr: "server.listen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Example()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	if err := WriteExample(path, false); err != nil {
		t.Fatalf("WriteExample() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Example()
	if cfg.Integra != want.Integra {
		t.Errorf("Integra = %+v, want %+v", cfg.Integra, want.Integra)
	}
	if len(cfg.Zones) != len(want.Zones) {
		t.Errorf("Zones = %+v, want %+v", cfg.Zones, want.Zones)
	}

	if err := WriteExample(path, false); err == nil {
		t.Error("WriteExample() should refuse to overwrite without force")
	}
	if err := WriteExample(path, true); err != nil {
		t.Errorf("WriteExample(force) error = %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestAccessories(t *testing.T) {
	cfg := Example()
	set, err := cfg.Accessories()
	if err != nil {
		t.Fatalf("Accessories() error = %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
	z, ok := set.Lookup(2)
	if !ok || z.Name != "Hall" || z.Type != "motion" {
		t.Errorf("Lookup(2) = %+v, %v", z, ok)
	}
}
