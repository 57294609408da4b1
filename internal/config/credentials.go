package config

import "os"

// PasswordEnvVar holds the device password when --password is not given
const PasswordEnvVar = "MHACWIFI_PASSWORD"

// DefaultPassword is the factory password of the WiFi module
const DefaultPassword = "admin"

// ResolvePassword picks the password from the flag, the environment or the
// factory default, in that order.
func ResolvePassword(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(PasswordEnvVar); env != "" {
		return env
	}
	return DefaultPassword
}
