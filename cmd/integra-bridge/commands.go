package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/config"
	"github.com/muurk/integra-bridge/internal/discovery"
	"github.com/muurk/integra-bridge/internal/integra"
	"github.com/muurk/integra-bridge/internal/logging"
	"github.com/muurk/integra-bridge/internal/mqtt"
	"github.com/muurk/integra-bridge/internal/protocol"
	"github.com/muurk/integra-bridge/internal/server"
	"github.com/muurk/integra-bridge/internal/ui"
	"github.com/muurk/integra-bridge/internal/version"
)

// Global flags
var (
	configPath   string
	logLevel     string
	host         string
	port         int
	serialPort   string
	baudRate     int
	outputFormat string
)

// Command flags
var (
	requestTimeout time.Duration
	scanTimeout    time.Duration
	forceInit      bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/integra-bridge/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent by default for one-shot commands")
	flags.StringVar(&host, "host", "", "ETHM-1 address (overrides integra.host)")
	flags.IntVar(&port, "port", 7094, "ETHM-1 integration port (overrides integra.port)")
	flags.StringVar(&serialPort, "serial", "", "INT-RS serial port, selects the serial transport (overrides integra.serial_port)")
	flags.IntVar(&baudRate, "baud", 19200, "INT-RS baud rate (overrides integra.baud_rate)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file and applies the controller flags on top.
// A missing default config file is not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	switch {
	case err == nil:
	case configPath == "" && errors.Is(err, fs.ErrNotExist):
		cfg = config.Defaults()
	default:
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Integra.Transport = config.TransportTCP
		cfg.Integra.Host = host
	}
	if flags.Changed("port") {
		cfg.Integra.Port = port
	}
	if flags.Changed("serial") {
		cfg.Integra.Transport = config.TransportSerial
		cfg.Integra.SerialPort = serialPort
	}
	if flags.Changed("baud") {
		cfg.Integra.BaudRate = baudRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(cfg config.IntegraConfig) *integra.Client {
	var dialer integra.Dialer
	switch cfg.Transport {
	case config.TransportSerial:
		dialer = integra.SerialDialer{Port: cfg.SerialPort, BaudRate: cfg.BaudRate}
	default:
		dialer = integra.TCPDialer{Host: cfg.Host, Port: cfg.Port}
	}

	return integra.New(integra.Config{
		Dialer:          dialer,
		PollInterval:    cfg.PollInterval,
		ResponseTimeout: cfg.ResponseTimeout,
	})
}

// startClient runs a client in the background. The returned func stops it
// and waits for the executor to exit.
func startClient(ctx context.Context, cfg config.IntegraConfig) (*integra.Client, func()) {
	client := newClient(cfg)
	ctx, cancel := context.WithCancel(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.Run(ctx); err != nil {
			logging.Error("Integra executor failed", zap.Error(err))
		}
	}()

	return client, func() {
		cancel()
		<-done
	}
}

func troubleshooting(cfg *config.Config) []string {
	if cfg.Integra.Transport == config.TransportSerial {
		return []string{
			"Check that " + cfg.Integra.SerialPort + " exists and is readable",
			"Check the INT-RS baud rate and cabling",
			"Check that the integration is enabled on the controller",
		}
	}
	return []string{
		"Check the ETHM-1 address and integration port",
		"Enable integration in DloadX (ETHM-1 settings)",
		"Disable integration encryption, it is not supported",
		"Only one client can use the ETHM-1 integration port at a time",
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// serveCmd runs the bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge",
	Long: `Run the bridge until interrupted.

The bridge reads the controller's system information, then polls zone states
once a second. Every change is pushed to WebSocket clients and, when enabled,
to the MQTT broker. The HTTP API is announced over mDNS unless
server.announce is false.`,
	Example: `  # Run with the default config file
  integra-bridge serve

  # Run with an explicit config and debug logging
  integra-bridge serve --config ./integra.yaml --log-level debug`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	zones, err := cfg.Accessories()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	var wg sync.WaitGroup
	var announcer *discovery.Announcer
	defer func() {
		cancel()
		wg.Wait()
		if announcer != nil {
			announcer.Shutdown()
		}
	}()

	client := newClient(cfg.Integra)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := client.Run(ctx); err != nil {
			logging.Error("Integra executor failed", zap.Error(err))
			cancel()
		}
	}()

	logging.Info("integra-bridge starting",
		zap.String("version", version.Full()),
		zap.String("controller", client.Addr()),
		zap.Int("zones", zones.Len()),
	)

	identified := client.RequestInfo()
	client.StartReadingZones(ctx)

	var publisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		publisher = mqtt.New(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		}, zones)
		if err := publisher.Connect(ctx); err != nil {
			return err
		}

		updates, unsubscribe := client.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer unsubscribe()
			publisher.Run(ctx, updates)
		}()
	}

	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(&server.Config{Listen: cfg.Server.Listen}, client, zones)
		if err := srv.Listen(); err != nil {
			return err
		}

		if cfg.Server.Announce {
			announcer, err = discovery.Announce(discovery.Announcement{
				Port:     srv.Port(),
				Metadata: bridgeMetadata(client.Addr(), nil),
			})
			if err != nil {
				logging.Warn("mDNS announcement disabled", zap.Error(err))
			}
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		info, err := identified.Wait(ctx)
		if err != nil {
			logging.Warn("Failed to read controller system info", zap.Error(err))
			return
		}
		logging.Info("Controller identified",
			zap.String("model", info.Model),
			zap.String("version", info.Version),
		)
		if announcer != nil {
			announcer.SetMetadata(bridgeMetadata(client.Addr(), &info))
		}
		if publisher != nil {
			if err := publisher.PublishInfo(info); err != nil {
				logging.Warn("Failed to publish system info to MQTT", zap.Error(err))
			}
		}
	}()

	if srv != nil {
		return srv.Start(ctx)
	}
	<-ctx.Done()
	return nil
}

// bridgeMetadata builds the announced TXT records. Model and version are
// added once the controller has been identified.
func bridgeMetadata(controller string, info *protocol.SystemInfo) map[string]string {
	metadata := map[string]string{
		discovery.TxtController: controller,
		discovery.TxtPath:       "/api",
	}
	if info != nil {
		metadata[discovery.TxtModel] = info.Model
		metadata[discovery.TxtVersion] = info.Version
	}
	return metadata
}

// infoCmd reads the controller's system information
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show controller model and firmware",
	Long: `Read the controller's system information: model, firmware version and
the number of zones, outputs and partitions it supports.`,
	Example: `  # Use the controller from the config file
  integra-bridge info

  # Query an ETHM-1 directly
  integra-bridge info --host 192.168.1.20

  # JSON output for scripting
  integra-bridge info --host 192.168.1.20 --format json`,
	RunE: runInfo,
}

func init() {
	for _, cmd := range []*cobra.Command{infoCmd, zonesCmd} {
		cmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
		cmd.Flags().DurationVar(&requestTimeout, "timeout", 15*time.Second, "Overall request timeout")
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client, stop := startClient(cmd.Context(), cfg.Integra)
	defer stop()

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	if outputFormat != "json" {
		printer.PrintHeader("System Info", "integra-bridge info", ui.Field{Key: "Controller", Value: client.Addr()})
	}

	info, err := client.ReadInfo(ctx)
	if err != nil {
		if outputFormat == "json" {
			return err
		}
		printer.PrintError("Failed to read system info", err, troubleshooting(cfg))
		return errReported
	}

	if outputFormat == "json" {
		return printJSON(info)
	}
	printer.PrintInfo(info)
	return nil
}

// zonesCmd reads violated zones once
var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Show zone states",
	Long: `Read violated zones once and show every configured zone with its sensor
state. Violated zones missing from the config are listed separately.`,
	Example: `  # Zones named in the config file
  integra-bridge zones

  # Raw violated zone numbers as JSON
  integra-bridge zones --host 192.168.1.20 --format json`,
	RunE: runZones,
}

// zonesOutput is the JSON form of the zones command
type zonesOutput struct {
	Violated     protocol.ZoneStates     `json:"violated"`
	Zones        []accessory.SensorState `json:"zones"`
	Unconfigured []int                   `json:"unconfigured"`
}

func runZones(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	zones, err := cfg.Accessories()
	if err != nil {
		return err
	}

	client, stop := startClient(cmd.Context(), cfg.Integra)
	defer stop()

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	if outputFormat != "json" {
		printer.PrintHeader("Zones", "integra-bridge zones",
			ui.Field{Key: "Controller", Value: client.Addr()},
			ui.Field{Key: "Configured", Value: fmt.Sprint(zones.Len())},
		)
	}

	violated, err := client.ReadZones(ctx)
	if err != nil {
		if outputFormat == "json" {
			return err
		}
		printer.PrintError("Failed to read zone states", err, troubleshooting(cfg))
		return errReported
	}

	if outputFormat == "json" {
		return printJSON(zonesOutput{
			Violated:     violated,
			Zones:        zones.States(violated),
			Unconfigured: zones.Unconfigured(violated),
		})
	}
	printer.PrintZones(zones.States(violated), zones.Unconfigured(violated))
	return nil
}

// watchCmd shows live zone states
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch zone states live",
	Long: `Poll zone states once a second and show them in an interactive view.
Press q to quit.`,
	Example: `  integra-bridge watch --host 192.168.1.20`,
	RunE:    runWatch,
}

// errNotTerminal is returned by watch when stdout is redirected
var errNotTerminal = errors.New("watch needs an interactive terminal, use 'integra-bridge zones' for one-shot output")

func runWatch(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return errNotTerminal
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	zones, err := cfg.Accessories()
	if err != nil {
		return err
	}

	client, stop := startClient(cmd.Context(), cfg.Integra)
	defer stop()

	updates, unsubscribe := client.Subscribe()
	defer unsubscribe()
	client.StartReadingZones(cmd.Context())

	status := func() ui.PollStatus {
		stats := client.Stats()
		return ui.PollStatus{Failed: stats.Failed, LastError: stats.LastError}
	}
	if err := ui.RunWatch("Zones on "+client.Addr(), zones, updates, status); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}

// scanCmd finds bridges on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for bridges on the network",
	Long: `Scan for integra-bridge instances using mDNS/DNS-SD discovery and show
the controller each one is attached to.`,
	Example: `  # Scan for 5 seconds (default)
  integra-bridge scan

  # Longer scan for busy networks
  integra-bridge scan --timeout 15s`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "Scan timeout")
}

func runScan(cmd *cobra.Command, args []string) error {
	printer := ui.NewPrinter(os.Stdout)
	printer.PrintHeader("Scan", "integra-bridge scan",
		ui.Field{Key: "Service", Value: discovery.ServiceType},
		ui.Field{Key: "Timeout", Value: scanTimeout.String()},
	)

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout
	bridges, err := scanner.Scan(cmd.Context())
	if err != nil {
		printer.PrintError("Scan failed", err, []string{
			"Check that multicast traffic is allowed on this network",
		})
		return errReported
	}

	if len(bridges) == 0 {
		printer.PrintError("No bridges found", errors.New("no mDNS responses"), []string{
			"Ensure a bridge is running with server.announce enabled",
			"Try increasing --timeout for slower networks",
		})
		return nil
	}

	for _, b := range bridges {
		printer.PrintSuccess(b.Instance,
			ui.Field{Key: "URL", Value: b.BaseURL()},
			ui.Field{Key: "Controller", Value: b.GetMetadata(discovery.TxtController)},
			ui.Field{Key: "Model", Value: b.GetMetadata(discovery.TxtModel)},
			ui.Field{Key: "Firmware", Value: b.GetMetadata(discovery.TxtVersion)},
		)
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	Example: `  # Write to the default location
  integra-bridge config init

  # Overwrite an existing file
  integra-bridge config init --config ./integra.yaml --force`,
	RunE: runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config file",
	RunE:  runConfigCheck,
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := config.WriteExample(path, forceInit); err != nil {
		return err
	}

	ui.NewPrinter(os.Stdout).PrintSuccess("Config written",
		ui.Field{Key: "Path", Value: path},
		ui.Field{Key: "Next", Value: "set integra.host and the zones list"},
	)
	return nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	cfg, err := config.Load(path)
	if err != nil {
		printer.PrintError("Invalid config", err, nil)
		return errReported
	}

	printer.PrintSuccess("Config OK",
		ui.Field{Key: "Path", Value: path},
		ui.Field{Key: "Transport", Value: cfg.Integra.Transport},
		ui.Field{Key: "Zones", Value: fmt.Sprint(len(cfg.Zones))},
		ui.Field{Key: "MQTT", Value: fmt.Sprint(cfg.MQTT.Enabled)},
	)
	return nil
}
