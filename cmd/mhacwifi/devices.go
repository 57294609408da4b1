package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/mhacwifi/internal/config"
	"github.com/muurk/mhacwifi/internal/ui"
)

// devices add flags
var (
	addDevice      config.Device
	addNoAutoLogin bool
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)

	f := devicesAddCmd.Flags()
	f.StringVar(&addDevice.Host, "host", "", "IP address or hostname of the module (required)")
	f.IntVar(&addDevice.Port, "http-port", 80, "HTTP port of the module")
	f.StringVar(&addDevice.Username, "user", "", "Login username")
	f.StringVar(&addDevice.Nickname, "nickname", "", "Display name")
	f.StringVar(&addDevice.Manufacturer, "manufacturer", "", "Accessory manufacturer")
	f.StringVar(&addDevice.Model, "model", "", "Accessory model")
	f.StringVar(&addDevice.SerialNumber, "serial", "", "Accessory serial number")
	f.BoolVar(&addNoAutoLogin, "no-auto-login", false, "Do not log in again when the session expires")
	_ = devicesAddCmd.MarkFlagRequired("host")
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage registered devices",
	Long: `Register WiFi modules under a name so commands can use --device <name>.
Passwords are never stored; use --password or ` + config.PasswordEnvVar + `.`,
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	Args:  cobra.NoArgs,
	RunE:  runDevicesList,
}

func runDevicesList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if outputFormat == formatJSON {
		return printJSON(reg.Devices)
	}

	p := ui.NewPrinter(os.Stdout)
	names := reg.DeviceNames()
	if len(names) == 0 {
		p.PrintWarning("No devices registered", map[string]string{
			"Add one": "mhacwifi devices add <name> --host <ip>",
		})
		return nil
	}

	tbl := &ui.Table{Headers: []string{"NAME", "HOST", "PORT", "USER", "NICKNAME"}}
	for _, name := range names {
		d := reg.Devices[name]
		port := d.Port
		if port == 0 {
			port = 80
		}
		tbl.AddRow(name, d.Host, strconv.Itoa(port), d.Username, d.Nickname)
	}
	p.PrintTable(tbl)
	return nil
}

var devicesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a device",
	Example: `  mhacwifi devices add living-room --host 192.168.1.40
  mhacwifi devices add office --host 192.168.1.41 --user admin --nickname "Office AC"`,
	Args: cobra.ExactArgs(1),
	RunE: runDevicesAdd,
}

func runDevicesAdd(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	dev := addDevice
	if addNoAutoLogin {
		disabled := false
		dev.AutoLogin = &disabled
	}
	if err := reg.AddDevice(args[0], &dev); err != nil {
		return err
	}
	if err := saveRegistry(reg); err != nil {
		return err
	}

	if outputFormat == formatJSON {
		return printJSON(map[string]any{"name": args[0], "device": dev})
	}
	ui.NewPrinter(os.Stdout).PrintSuccess("Device registered", map[string]string{
		"Name": args[0],
		"Host": fmt.Sprintf("%s:%d", dev.Host, dev.Port),
	})
	return nil
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a registered device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesRemove,
}

func runDevicesRemove(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if !reg.RemoveDevice(args[0]) {
		return fmt.Errorf("no device named %q", args[0])
	}
	if err := saveRegistry(reg); err != nil {
		return err
	}

	if outputFormat == formatJSON {
		return printJSON(map[string]any{"removed": args[0]})
	}
	ui.NewPrinter(os.Stdout).PrintSuccess("Device removed", map[string]string{"Name": args[0]})
	return nil
}
