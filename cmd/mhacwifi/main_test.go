package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/mhacwifi/internal/config"
)

// useConfig points the global flags at a fresh config file for one test
func useConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	saved := []any{configPath, deviceName, devicePort, username}
	configPath, deviceName, devicePort, username = path, "", 0, ""
	t.Cleanup(func() {
		configPath = saved[0].(string)
		deviceName = saved[1].(string)
		devicePort = saved[2].(int)
		username = saved[3].(string)
	})
	return path
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"235", int64(235)},
		{"-3", int64(-3)},
		{"21.5", 21.5},
		{"auto", "auto"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestResolveTargetFromRegistry(t *testing.T) {
	path := useConfig(t)
	reg := config.NewRegistry()
	require.NoError(t, reg.AddDevice("living-room", &config.Device{Host: "192.168.1.40", Username: "installer"}))
	require.NoError(t, reg.SaveTo(path))

	tgt, err := resolveTarget()
	require.NoError(t, err)
	assert.Equal(t, "living-room", tgt.name)
	assert.Equal(t, "192.168.1.40:80", tgt.address())
	assert.Equal(t, "installer", tgt.device.Username)

	devicePort = 8080
	username = "admin"
	tgt, err = resolveTarget()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.40:8080", tgt.address())
	assert.Equal(t, "admin", tgt.device.Username)
}

func TestResolveTargetHost(t *testing.T) {
	useConfig(t)
	deviceName = "10.0.0.7"

	tgt, err := resolveTarget()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", tgt.name)
	assert.Equal(t, "10.0.0.7:80", tgt.address())
	assert.Equal(t, "admin", tgt.device.Username)

	c := tgt.client()
	assert.Equal(t, "http://10.0.0.7:80", c.BaseURL)
	assert.True(t, c.AutoLogin)
	assert.Equal(t, tgt.prefs.RetryAttempts, c.RetryAttempts)
}

func TestResolveTargetNeedsDevice(t *testing.T) {
	useConfig(t)
	_, err := resolveTarget()
	assert.Error(t, err)
}

func TestDevicesAddAndRemove(t *testing.T) {
	path := useConfig(t)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"devices", "add", "office", "--host", "192.168.1.41", "--no-auto-login", "--config", path})
	require.NoError(t, rootCmd.Execute())

	reg, err := config.LoadFrom(path)
	require.NoError(t, err)
	dev := reg.GetDevice("office")
	require.NotNil(t, dev)
	assert.Equal(t, "192.168.1.41", dev.Host)
	assert.False(t, dev.AutoLoginEnabled())

	rootCmd.SetArgs([]string{"devices", "remove", "office", "--config", path})
	require.NoError(t, rootCmd.Execute())

	reg, err = config.LoadFrom(path)
	require.NoError(t, err)
	assert.Nil(t, reg.GetDevice("office"))
}

func TestUnknownFormatRejected(t *testing.T) {
	useConfig(t)
	saved := outputFormat
	t.Cleanup(func() {
		outputFormat = saved
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"devices", "list", "--format", "yaml"})
	assert.Error(t, rootCmd.Execute())
}
