// Mhacwifi controls Mitsubishi Heavy Industries air conditioners through
// their Intesis airconwithme / MH-AC-WIFI-1 WiFi module.
//
// It talks to the module's local HTTP API, reads and writes data points,
// shows a live view of a unit and can run a small bridge that exposes the
// unit as a heater/cooler accessory over HTTP and websockets.
//
// Usage:
//
//	mhacwifi [command] [flags]
//
// See 'mhacwifi --help' for available commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/mhacwifi/internal/acwm"
	"github.com/muurk/mhacwifi/internal/logging"
	"github.com/muurk/mhacwifi/internal/ui"
	"github.com/muurk/mhacwifi/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mhacwifi",
	Short: "MH-AC-WIFI-1 / airconwithme control utility",
	Long: `A command line client for Intesis airconwithme and MH-AC-WIFI-1 modules.

Reads unit information and data points, changes settings, and serves a
heater/cooler bridge with Prometheus metrics. Devices can be addressed by
host or by a name registered with 'mhacwifi devices add'.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

// setup validates global flags and starts logging
func setup(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case formatDetailed, formatJSON:
	default:
		return fmt.Errorf("unknown output format %q (use %s or %s)", outputFormat, formatDetailed, formatJSON)
	}
	return logging.Initialize(logLevel)
}

// printError reports a failed command on stderr. Device errors get the
// short message and troubleshooting hints.
func printError(err error) {
	if outputFormat == formatJSON {
		_ = json.NewEncoder(os.Stderr).Encode(map[string]string{"error": err.Error()})
		return
	}
	var devErr *acwm.DeviceError
	if errors.As(err, &devErr) {
		ui.NewPrinter(os.Stderr).PrintFailure(
			acwm.GetShortErrorMessage(err), err, acwm.GetTroubleshootingHint(err))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat == formatJSON {
			return printJSON(version.Get())
		}
		fmt.Printf("mhacwifi %s\n", version.Full())
		return nil
	},
}
