// Integra-bridge connects to a Satel INTEGRA alarm controller through an
// ETHM-1 (TCP) or INT-RS (serial) integration module.
//
// It reads system information and polls violated zones once a second, then
// republishes them over HTTP, a WebSocket feed and MQTT. Bridges announce
// themselves over mDNS so they can be found with the scan command.
//
// Usage:
//
//	integra-bridge [command] [flags]
//
// See 'integra-bridge --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/integra-bridge/internal/version"
)

// errReported marks failures the command already rendered for the user.
var errReported = errors.New("command failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "integra-bridge",
	Short: "Satel INTEGRA alarm bridge",
	Long: `A bridge between a Satel INTEGRA alarm controller and your home network.

The controller is reached through an ETHM-1 module over TCP or an INT-RS
module over a serial port. Zone states are polled once a second and served
over HTTP, a WebSocket feed and MQTT.

Settings are read from the YAML config file (see 'integra-bridge config init').
The --host, --port and --serial flags override the controller address so the
one-shot commands also work without a config file.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("integra-bridge"))
	},
}
