// Package config provides user configuration management for mhacwifi.
//
// This package manages a YAML-based configuration file that stores named
// WiFi modules and client preferences (retry policy, timeouts, poll
// interval). The configuration follows OS-specific conventions for storage
// location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/mhacwifi/config.yaml or $HOME/.config/mhacwifi/config.yaml
//   - macOS: $HOME/.config/mhacwifi/config.yaml
//   - Windows: %LOCALAPPDATA%\mhacwifi\config.yaml
//
// # Security
//
// Device passwords are never written to the file. ResolvePassword takes
// them from the command line, MHACWIFI_PASSWORD or the factory default.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = registry.AddDevice("living-room", &config.Device{
//	    Host:     "192.168.1.40",
//	    Nickname: "Living room",
//	})
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
