package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/mhacwifi/internal/accessory"
	"github.com/muurk/mhacwifi/internal/acwm"
	"github.com/muurk/mhacwifi/internal/ui"
)

var rebootConfirmed bool

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(referenceCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(datapointsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(statusCmd)

	rebootCmd.Flags().BoolVarP(&rebootConfirmed, "yes", "y", false, "Skip the confirmation prompt")
}

// infoCmd shows unit information
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show unit information",
	Long: `Display the information reported by the WiFi module: model, serial number,
firmware versions, WLAN state and signal strength. No login is required.`,
	Example: `  # Show info for a registered device
  mhacwifi info --device living-room

  # JSON output for scripting
  mhacwifi info --device 192.168.1.40 --format json`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	info, err := t.client().GetInfo(cmd.Context())
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(info)
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Unit information", "mhacwifi info", t.headerParams())
	p.PrintSuccess(info.DeviceModel, map[string]string{
		"Serial":        info.SerialNumber,
		"Firmware":      info.FirmwareVer,
		"WLAN firmware": info.WLANFirmware,
		"MAC":           info.WLANSTAMAC,
		"SSID":          info.SSID,
		"RSSI":          strconv.Itoa(info.RSSI),
		"Local time":    info.LocalDateTime,
	})
	return nil
}

// referenceCmd shows the compressed static reference
var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Load the unit's static reference descriptor",
	Long: `Download and decompress the device reference (/js/data/data.json).
The module serves it gzip or zlib compressed; both are accepted.
The detailed format lists the top-level keys; json prints the whole document.`,
	Args: cobra.NoArgs,
	RunE: runReference,
}

func runReference(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	ref, err := t.client().Init(cmd.Context())
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(ref)
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Device reference", "mhacwifi reference", t.headerParams())
	tbl := &ui.Table{Headers: []string{"KEY", "TYPE"}}
	for _, key := range ref.Keys() {
		tbl.AddRow(key, fmt.Sprintf("%T", ref[key]))
	}
	p.PrintTable(tbl)
	return nil
}

// configCmd shows the network configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the module's network configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
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

	cfg, err := client.GetCurrentConfig(cmd.Context())
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(cfg)
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Network configuration", "mhacwifi config", t.headerParams())
	p.PrintSuccess("Configuration read", map[string]string{
		"IP":          cfg.IP,
		"Netmask":     cfg.Netmask,
		"Gateway":     cfg.DefaultGateway,
		"DHCP":        fmt.Sprint(cfg.DHCP),
		"SSID":        cfg.SSID,
		"Security":    fmt.Sprint(cfg.Security),
		"Last change": cfg.LastConfigTime,
	})
	return nil
}

// datapointsCmd lists the supported data points
var datapointsCmd = &cobra.Command{
	Use:   "datapoints",
	Short: "List the data points supported by the unit",
	Args:  cobra.NoArgs,
	RunE:  runDatapoints,
}

func runDatapoints(cmd *cobra.Command, args []string) error {
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

	dps, err := client.GetAvailableDataPoints(cmd.Context())
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(dps)
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Data points", "mhacwifi datapoints", t.headerParams())
	if len(dps) == 0 {
		p.PrintWarning("The unit reported no data points", nil)
		return nil
	}
	tbl := &ui.Table{Headers: []string{"UID", "ACCESS", "TYPE", "NAME"}}
	for _, dp := range dps {
		tbl.AddRow(strconv.Itoa(dp.UID), dp.RW, strconv.Itoa(dp.Type), characteristicName(dp.UID))
	}
	p.PrintTable(tbl)
	return nil
}

// getCmd reads one or every data point
var getCmd = &cobra.Command{
	Use:   "get [uid]",
	Short: "Read data point values",
	Long: `Read the value of one data point, or of every data point when no uid is given.
Reads are retried on transient failures.`,
	Example: `  # Read every data point
  mhacwifi get --device living-room

  # Read the setpoint (tenths of a degree)
  mhacwifi get 9 --device living-room`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	var uid int
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid uid %q: %w", args[0], err)
		}
		uid = n
	}

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

	var values []acwm.DataPointValue
	if len(args) == 1 {
		v, err := client.GetDataPointValue(cmd.Context(), uid)
		if err != nil {
			return err
		}
		values = []acwm.DataPointValue{*v}
	} else {
		values, err = client.GetAllDataPointValues(cmd.Context())
		if err != nil {
			return err
		}
	}

	if outputFormat == formatJSON {
		if len(args) == 1 {
			return printJSON(values[0])
		}
		return printJSON(values)
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Data point values", "mhacwifi get", t.headerParams())
	tbl := &ui.Table{Headers: []string{"UID", "VALUE", "STATUS", "NAME"}}
	for _, v := range values {
		tbl.AddRow(strconv.Itoa(v.UID), v.String(), strconv.Itoa(v.Status), characteristicName(v.UID))
	}
	p.PrintTable(tbl)
	return nil
}

// setCmd writes a data point
var setCmd = &cobra.Command{
	Use:   "set <uid> <value>",
	Short: "Write a data point value",
	Long: `Write a raw value to a data point. Numbers are sent as numbers, anything
else as a string. Values are device units: temperatures are in tenths of a
degree. Writes are retried on transient failures.`,
	Example: `  # Switch the unit on
  mhacwifi set 1 1 --device living-room

  # Set 23.5 degrees
  mhacwifi set 9 235 --device living-room`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	uid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid uid %q: %w", args[0], err)
	}
	value := parseValue(args[1])

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

	result, err := client.SetDataPointValue(cmd.Context(), uid, value)
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(map[string]any{"uid": uid, "value": value, "success": result.Success})
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Set data point", "mhacwifi set", t.headerParams())
	p.PrintSuccess(fmt.Sprintf("Data point %d set", uid), map[string]string{
		"UID":   strconv.Itoa(uid),
		"Value": fmt.Sprint(value),
	})
	return nil
}

// identifyCmd flashes the module LED
var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Flash the module's LED",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimple(cmd, "Identify", func(c *acwm.Client) (*acwm.CommandResult, error) {
			return c.Identify(cmd.Context())
		})
	},
}

// rebootCmd restarts the module
var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Restart the WiFi module",
	Long: `Restart the WiFi module. The air conditioning unit itself is not affected.
You are asked to confirm unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runReboot,
}

func runReboot(cmd *cobra.Command, args []string) error {
	if !rebootConfirmed {
		if outputFormat == formatJSON {
			return fmt.Errorf("reboot with --format json requires --yes")
		}
		t, err := resolveTarget()
		if err != nil {
			return err
		}
		if !ui.RebootConfirmation(t.name).Ask(os.Stdin, os.Stdout) {
			return nil
		}
	}
	return runSimple(cmd, "Reboot", func(c *acwm.Client) (*acwm.CommandResult, error) {
		return c.Reboot(cmd.Context())
	})
}

// runSimple runs a command that only reports success
func runSimple(cmd *cobra.Command, title string, fn func(*acwm.Client) (*acwm.CommandResult, error)) error {
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

	result, err := fn(client)
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(map[string]any{"command": cmd.Name(), "success": result.Success, "data": json.RawMessage(orNull(result.Data))})
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader(title, "mhacwifi "+cmd.Name(), t.headerParams())
	p.PrintSuccess(title+" sent", map[string]string{"Device": t.address()})
	return nil
}

// statusCmd shows the heater/cooler view
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the unit as a heater/cooler",
	Long: `Read every data point in one request and show the heater/cooler
characteristics, including the derived current state.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	// Info only fills in missing accessory details; failure is not fatal.
	info, _ := client.GetInfo(cmd.Context())
	acc := accessory.New(client, t.information(info))

	state, err := acc.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(map[string]any{"information": acc.Information(), "state": state})
	}

	p := ui.NewPrinter(os.Stdout)
	ai := acc.Information()
	p.PrintHeader("Status", "mhacwifi status", map[string]string{
		"Device": t.address(),
		"Model":  ai.Model,
		"Serial": ai.SerialNumber,
	})
	p.PrintTable(ui.StateTable(state))
	p.Println("  Current state: " + ui.CurrentStateLabel(state.CurrentState))
	return nil
}

// characteristicName returns the accessory name mapped to a data point, if any
func characteristicName(uid int) string {
	for _, c := range accessory.Characteristics() {
		if c.UID == uid {
			return c.Name
		}
	}
	return ""
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
