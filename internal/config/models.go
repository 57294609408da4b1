package config

import (
	"fmt"
	"sort"
	"time"
)

// Registry represents the entire user configuration file.
// This stores named devices and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents one WiFi module the user has registered.
// Passwords are never stored here.
type Device struct {
	Host      string `yaml:"host"`                // IP address or hostname
	Port      int    `yaml:"port,omitempty"`      // HTTP port (default 80)
	Username  string `yaml:"username,omitempty"`  // Login username (default admin)
	Nickname  string `yaml:"nickname,omitempty"`  // User-friendly name
	AutoLogin *bool  `yaml:"auto_login,omitempty"` // Re-login on expired sessions (default true)

	// Accessory information reported by the bridge
	Manufacturer string `yaml:"manufacturer,omitempty"`
	Model        string `yaml:"model,omitempty"`
	SerialNumber string `yaml:"serial_number,omitempty"`
}

// AutoLoginEnabled returns the auto-login setting, defaulting to true
func (d *Device) AutoLoginEnabled() bool {
	return d.AutoLogin == nil || *d.AutoLogin
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	RetryAttempts       int `yaml:"retry_attempts"`        // Attempts for data point reads and writes
	RetryDelayMS        int `yaml:"retry_delay_ms"`        // Fixed delay between attempts
	TimeoutSeconds      int `yaml:"timeout_seconds"`       // HTTP request timeout
	PollIntervalSeconds int `yaml:"poll_interval_seconds"` // Bridge and watch refresh interval
}

// RetryDelay returns the retry delay as a duration
func (p *Preferences) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelayMS) * time.Millisecond
}

// Timeout returns the request timeout as a duration
func (p *Preferences) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// PollInterval returns the poll interval as a duration
func (p *Preferences) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

// DefaultPreferences returns the preferences used when none are configured.
func DefaultPreferences() *Preferences {
	return &Preferences{
		RetryAttempts:       5,
		RetryDelayMS:        100,
		TimeoutSeconds:      10,
		PollIntervalSeconds: 10,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: DefaultPreferences(),
	}
}

// GetDevice retrieves a device by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// AddDevice adds or replaces a named device.
func (r *Registry) AddDevice(name string, device *Device) error {
	if name == "" {
		return fmt.Errorf("device name must not be empty")
	}
	if device == nil || device.Host == "" {
		return fmt.Errorf("device %q needs a host", name)
	}
	if device.Port < 0 || device.Port > 65535 {
		return fmt.Errorf("device %q: invalid port %d", name, device.Port)
	}
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	r.Devices[name] = device
	return nil
}

// RemoveDevice removes a named device. It reports whether the device existed.
func (r *Registry) RemoveDevice(name string) bool {
	if _, ok := r.Devices[name]; !ok {
		return false
	}
	delete(r.Devices, name)
	return true
}

// DeviceNames returns the registered device names in sorted order.
func (r *Registry) DeviceNames() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the device registered under nameOrHost. An unknown name is
// taken to be a host address. With an empty argument and exactly one
// registered device, that device is returned.
func (r *Registry) Resolve(nameOrHost string) (*Device, error) {
	if nameOrHost == "" {
		if len(r.Devices) == 1 {
			for _, d := range r.Devices {
				return d, nil
			}
		}
		return nil, fmt.Errorf("no device given: use --device or register one with 'mhacwifi devices add'")
	}
	if d, ok := r.Devices[nameOrHost]; ok {
		return d, nil
	}
	return &Device{Host: nameOrHost}, nil
}
