// Package config loads and validates the bridge configuration.
//
// The configuration is a YAML file stored in platform-appropriate
// locations:
//   - Linux: $XDG_CONFIG_HOME/integra-bridge/config.yaml or $HOME/.config/integra-bridge/config.yaml
//   - macOS: $HOME/.config/integra-bridge/config.yaml
//   - Windows: %LOCALAPPDATA%\integra-bridge\config.yaml
//
// Any field missing from the file keeps its value from Defaults.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	zones, err := cfg.Accessories()
//
// The file may hold MQTT credentials and is written with 0600 permissions.
package config
