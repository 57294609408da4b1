package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/muurk/mhacwifi/internal/accessory"
	"github.com/muurk/mhacwifi/internal/acwm"
	"github.com/muurk/mhacwifi/internal/config"
	"github.com/muurk/mhacwifi/internal/logging"
)

// Output formats
const (
	formatDetailed = "detailed"
	formatJSON     = "json"
)

// Global flags
var (
	deviceName   string
	devicePort   int
	username     string
	password     string
	configPath   string
	outputFormat string
	logLevel     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceName, "device", "", "Registered device name or host address")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 0, "Device HTTP port (default 80)")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Login username (default admin)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Login password (default $"+config.PasswordEnvVar+" or admin)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/mhacwifi/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatDetailed, "Output format (detailed, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default $"+logging.LogLevelEnvVar)
}

// target is a resolved device plus the preferences that apply to it
type target struct {
	name   string
	device *config.Device
	prefs  *config.Preferences
}

// loadRegistry reads the config file named by --config or the default one
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.LoadRegistry()
}

// saveRegistry writes the registry back to where it was loaded from
func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveTo(configPath)
	}
	return reg.Save()
}

// resolveTarget applies the global flags on top of the registered device
func resolveTarget() (*target, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	dev, err := reg.Resolve(deviceName)
	if err != nil {
		return nil, err
	}

	resolved := *dev
	if devicePort != 0 {
		resolved.Port = devicePort
	}
	if resolved.Port == 0 {
		resolved.Port = 80
	}
	if username != "" {
		resolved.Username = username
	}
	if resolved.Username == "" {
		resolved.Username = acwm.DefaultUsername
	}

	prefs := reg.Preferences
	if prefs == nil {
		prefs = config.DefaultPreferences()
	}

	name := deviceName
	if name == "" {
		name = resolved.Host
		for _, n := range reg.DeviceNames() {
			if reg.Devices[n] == dev {
				name = n
			}
		}
	}
	return &target{name: name, device: &resolved, prefs: prefs}, nil
}

// address returns host:port for display
func (t *target) address() string {
	return fmt.Sprintf("%s:%d", t.device.Host, t.device.Port)
}

// client builds a device client configured from the target
func (t *target) client() *acwm.Client {
	c := acwm.NewClient(t.device.Host, t.device.Port)
	c.SetAuth(t.device.Username, config.ResolvePassword(password))
	c.SetTimeout(t.prefs.Timeout())
	c.SetRetry(t.prefs.RetryAttempts, t.prefs.RetryDelay())
	c.AutoLogin = t.device.AutoLoginEnabled()
	return c
}

// headerParams are the parameters shown in every command header
func (t *target) headerParams() map[string]string {
	return map[string]string{
		"Device": t.address(),
		"User":   t.device.Username,
	}
}

// information merges registered accessory details with what the unit reports
func (t *target) information(info *acwm.Info) accessory.Information {
	ai := accessory.Information{
		Manufacturer: t.device.Manufacturer,
		Model:        t.device.Model,
		SerialNumber: t.device.SerialNumber,
	}
	if info != nil {
		if ai.Model == "" {
			ai.Model = info.DeviceModel
		}
		if ai.SerialNumber == "" {
			ai.SerialNumber = info.SerialNumber
		}
	}
	return ai.WithDefaults()
}

// session logs in and returns a function that logs out again
func session(ctx context.Context, c *acwm.Client) (func(), error) {
	if _, err := c.Login(ctx, "", ""); err != nil {
		return nil, err
	}
	return func() { _ = c.Logout(context.WithoutCancel(ctx)) }, nil
}

// parseValue turns a command line value into a number when it looks like one
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
