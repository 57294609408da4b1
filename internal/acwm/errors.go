package acwm

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorCodeSessionInvalid is the device error code reported when the
// session identifier is missing, invalid or expired.
const ErrorCodeSessionInvalid = 1

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTransport indicates the request never produced a usable HTTP
	// exchange (connection refused, reset, timeout) or a non-200 reference fetch
	ErrTypeTransport ErrorType = iota
	// ErrTypeDecode indicates a response body that could not be decompressed or parsed
	ErrTypeDecode
	// ErrTypeAuth indicates the login command itself failed
	ErrTypeAuth
	// ErrTypeDevice indicates the device answered with success:false
	ErrTypeDevice
)

// TransportSubtype provides more specific transport error classification
type TransportSubtype int

const (
	TransportGeneral TransportSubtype = iota
	TransportTimeout
	TransportConnectionRefused
	TransportConnectionReset
	TransportHostUnreachable
	TransportDNS
	TransportHTTPStatus
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeDevice:
		return "Device Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred while talking to the device
type DeviceError struct {
	Type       ErrorType        // Category of error
	Subtype    TransportSubtype // Transport classification (ErrTypeTransport only)
	Message    string           // Human-readable error message
	Command    string           // Command being executed, if any
	Code       int              // Device error code (ErrTypeAuth, ErrTypeDevice)
	StatusCode int              // HTTP status code, if a response was received
	Result     *CommandResult   // Full command result, if the device answered
	Err        error            // Underlying error, if any
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	if e.Command != "" {
		fmt.Fprintf(&b, " [%s]", e.Command)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Type == ErrTypeDevice || e.Type == ErrTypeAuth {
		fmt.Fprintf(&b, " (code %d, status %d)", e.Code, e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error with automatic classification
func NewTransportError(command, message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeTransport,
		Subtype: classifyTransport(err),
		Message: message,
		Command: command,
		Err:     err,
	}
}

// NewStatusError creates a transport error for an unexpected HTTP status
func NewStatusError(command string, statusCode int) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeTransport,
		Subtype:    TransportHTTPStatus,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		Command:    command,
		StatusCode: statusCode,
	}
}

// NewDecodeError creates a decode error
func NewDecodeError(command, message string, statusCode int, err error) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeDecode,
		Message:    message,
		Command:    command,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewAuthError creates an authentication error from a failed login result
func NewAuthError(result *CommandResult) *DeviceError {
	e := resultError(ErrTypeAuth, "login", result)
	if e.Message == "" {
		e.Message = "login rejected"
	}
	return e
}

// NewResultError creates a device error carrying the full failed result
func NewResultError(command string, result *CommandResult) *DeviceError {
	e := resultError(ErrTypeDevice, command, result)
	if e.Message == "" {
		e.Message = "command failed"
	}
	return e
}

func resultError(typ ErrorType, command string, result *CommandResult) *DeviceError {
	e := &DeviceError{
		Type:    typ,
		Command: command,
		Result:  result,
	}
	if result != nil {
		e.StatusCode = result.StatusCode
		if result.Error != nil {
			e.Code = result.Error.Code
			e.Message = result.Error.Message
		}
	}
	return e
}

// classifyTransport analyzes a transport error and returns a more specific subtype
func classifyTransport(err error) TransportSubtype {
	if err == nil {
		return TransportGeneral
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}

	if os.IsTimeout(err) {
		return TransportTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TransportDNS
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return TransportConnectionRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return TransportConnectionReset
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return TransportHostUnreachable
	}

	// A connection closed mid-response counts as a reset
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		strings.Contains(err.Error(), "connection reset") {
		return TransportConnectionReset
	}

	return TransportGeneral
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr, true
	}
	return nil, false
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeTransport
}

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeDecode
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeAuth
}

// IsDeviceError checks if an error is a device-reported failure
func IsDeviceError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeDevice
}

// IsSessionExpired checks if an error reports an invalid or expired session
func IsSessionExpired(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeDevice && devErr.Code == ErrorCodeSessionInvalid
}

// IsRetryable reports whether the retry wrapper may attempt the command again.
// Decode and authentication failures are permanent; everything else the
// device or network reports is retried.
func IsRetryable(err error) bool {
	devErr, ok := asDeviceError(err)
	if !ok {
		return false
	}
	return devErr.Type == ErrTypeTransport || devErr.Type == ErrTypeDevice
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTransport:
		switch devErr.Subtype {
		case TransportTimeout:
			return "Device not responding (timeout)"
		case TransportConnectionRefused:
			return "Device refused connection"
		case TransportConnectionReset:
			return "Connection reset by device"
		case TransportHostUnreachable:
			return "Device unreachable - check network connection"
		case TransportDNS:
			return "Cannot resolve device hostname"
		case TransportHTTPStatus:
			return fmt.Sprintf("Device returned HTTP %d", devErr.StatusCode)
		default:
			return "Network error - check connection"
		}
	case ErrTypeDecode:
		return "Failed to decode device response"
	case ErrTypeAuth:
		return "Login failed - check username and password"
	case ErrTypeDevice:
		if devErr.Code == ErrorCodeSessionInvalid {
			return "Session expired"
		}
		if devErr.Message != "" {
			return fmt.Sprintf("Device error %d: %s", devErr.Code, devErr.Message)
		}
		return fmt.Sprintf("Device error %d", devErr.Code)
	default:
		return devErr.Message
	}
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) []string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return nil
	}

	switch devErr.Type {
	case ErrTypeTransport:
		if devErr.Subtype == TransportConnectionReset {
			return []string{
				"The WiFi module resets idle connections intermittently.",
				"Raise retry_attempts or retry_delay_ms in the config file if this happens often",
			}
		}
		return []string{
			"Check that the unit is powered on and joined to your network",
			"Verify the IP address (the module does not answer on other ports)",
			"Try again after a few seconds - the module can be slow after a reboot",
		}
	case ErrTypeDecode:
		return []string{
			"The module answered with data this client does not understand.",
			"Check the firmware version reported by 'mhacwifi info'",
		}
	case ErrTypeAuth:
		return []string{
			"The factory credentials are admin/admin",
			"Pass --username/--password or set MHACWIFI_PASSWORD",
		}
	case ErrTypeDevice:
		return []string{
			"The module rejected the command.",
			"Use 'mhacwifi datapoints' to list the data points this unit supports",
		}
	default:
		return nil
	}
}
