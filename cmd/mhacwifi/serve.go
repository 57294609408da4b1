package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/accessory"
	"github.com/muurk/mhacwifi/internal/bridge"
	"github.com/muurk/mhacwifi/internal/logging"
	"github.com/muurk/mhacwifi/internal/metrics"
	"github.com/muurk/mhacwifi/internal/ui"
)

// Serve and watch flags
var (
	listenHost   string
	listenPort   int
	pollInterval time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)

	serveCmd.Flags().StringVar(&listenHost, "listen", "", "Address to listen on (default all interfaces)")
	serveCmd.Flags().IntVar(&listenPort, "listen-port", bridge.DefaultPort, "Port to listen on")
	serveCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Data point poll interval (default from config)")
	watchCmd.Flags().DurationVar(&pollInterval, "interval", 0, "Refresh interval (default from config)")
}

// serveCmd runs the accessory bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the unit as a heater/cooler accessory",
	Long: `Run the bridge: an HTTP server exposing the unit's heater/cooler
characteristics, a websocket stream of value changes and Prometheus metrics.

Endpoints:
  GET  /api/accessory
  GET  /api/state
  GET  /api/characteristics/{name}
  PUT  /api/characteristics/{name}   {"value": n}
  POST /api/identify
  GET  /ws
  GET  /metrics
  GET  /health`,
	Example: `  # Serve a registered device on the default port
  mhacwifi serve --device living-room

  # Enable request logging
  MHACWIFI_LOG_LEVEL=info mhacwifi serve --device 192.168.1.40 --listen-port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	client := t.client()
	client.Observer = registry.Metrics

	if _, err := client.Login(ctx, "", ""); err != nil {
		return fmt.Errorf("login to %s: %w", t.address(), err)
	}
	info, err := client.GetInfo(ctx)
	if err != nil {
		logging.Warn("Unit information unavailable", zap.String("device", t.address()), zap.Error(err))
	}
	acc := accessory.New(client, t.information(info))

	interval := pollInterval
	if interval <= 0 {
		interval = t.prefs.PollInterval()
	}
	server := bridge.New(acc, registry, bridge.Config{
		Host:         listenHost,
		Port:         listenPort,
		PollInterval: interval,
	})

	fmt.Printf("Serving %s on %s (poll every %s)\n", t.name, server.Addr(), interval)
	return server.Run(ctx)
}

// watchCmd shows a live view of the unit
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the unit's characteristics",
	Long: `Poll every data point at a fixed interval and redraw the heater/cooler view.
Press r to refresh immediately, q to quit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.client()
	end, err := session(cmd.Context(), client)
	if err != nil {
		return err
	}
	defer end()

	interval := pollInterval
	if interval <= 0 {
		interval = t.prefs.PollInterval()
	}
	acc := accessory.New(client, t.information(client.CachedInfo()))

	model := ui.NewWatchModel(acc, t.name, interval)
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
