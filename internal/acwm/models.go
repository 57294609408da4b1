package acwm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Command names understood by the WiFi module's /api.cgi endpoint
const (
	CmdLogin                  = "login"
	CmdLogout                 = "logout"
	CmdGetInfo                = "getinfo"
	CmdGetCurrentConfig       = "getcurrentconfig"
	CmdGetAvailableDataPoints = "getavailabledatapoints"
	CmdGetDataPointValue      = "getdatapointvalue"
	CmdSetDataPointValue      = "setdatapointvalue"
	CmdIdentify               = "identify"
	CmdReboot                 = "reboot"
)

// AllDataPoints is the uid sentinel that asks the device for every data point
const AllDataPoints = "all"

// sessionField is the payload field that carries the session identifier
const sessionField = "sessionID"

// Command is a single request to the device.
//
// When WithSession is set the dispatcher writes the session identifier that
// is current at send time into Data["sessionID"]; callers never embed it.
type Command struct {
	Name        string
	Data        map[string]any
	WithSession bool
}

// payload returns the data map to serialize, with the session field applied.
// Data is copied so a replay never observes a previous attempt's token.
func (c Command) payload(session string) map[string]any {
	if !c.WithSession {
		return c.Data
	}
	data := make(map[string]any, len(c.Data)+1)
	for k, v := range c.Data {
		data[k] = v
	}
	data[sessionField] = session
	return data
}

// request is the body posted to /api.cgi
type request struct {
	Command string         `json:"command"`
	Data    map[string]any `json:"data"`
}

// CommandError is the error record of a failed command
type CommandError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CommandResult is the parsed response of a command.
// StatusCode is the HTTP status of the response and is filled in regardless
// of the body content.
type CommandResult struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      *CommandError   `json:"error,omitempty"`
	StatusCode int             `json:"-"`
}

// SessionExpired reports whether the result signals an invalid session
func (r *CommandResult) SessionExpired() bool {
	return r != nil && !r.Success && r.Error != nil && r.Error.Code == ErrorCodeSessionInvalid
}

// decodeData unmarshals the result payload into v
func (r *CommandResult) decodeData(command string, v any) error {
	if len(r.Data) == 0 {
		return NewDecodeError(command, "response has no data", r.StatusCode, nil)
	}
	dec := json.NewDecoder(bytes.NewReader(r.Data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return NewDecodeError(command, "failed to parse response data", r.StatusCode, err)
	}
	return nil
}

// Info is the unit information returned by getinfo.
// Fields the firmware does not report are left empty.
type Info struct {
	DeviceModel    string `json:"deviceModel"`
	SerialNumber   string `json:"sn"`
	FirmwareVer    string `json:"fwVersion"`
	WLANFirmware   string `json:"wlanFwVersion"`
	WLANSTAMAC     string `json:"wlanSTAMAC"`
	WLANAPMAC      string `json:"wlanAPMAC"`
	OwnSSID        string `json:"ownSSID"`
	SSID           string `json:"ssid"`
	RSSI           int    `json:"rssi"`
	ACStatus       int    `json:"acStatus"`
	WLANLink       int    `json:"wlanLNK"`
	TCPServerLink  int    `json:"tcpServerLNK"`
	PowerStatus    int    `json:"powerStatus"`
	LocalDateTime  string `json:"localdatetime"`
	LastConfigTime string `json:"lastconfigdatetime"`
}

// NetworkConfig is the network configuration returned by getcurrentconfig
type NetworkConfig struct {
	IP             string `json:"ip"`
	Netmask        string `json:"netmask"`
	DefaultGateway string `json:"dfltgw"`
	DHCP           any    `json:"dhcp"`
	SSID           string `json:"ssid"`
	Security       any    `json:"security"`
	LastConfigTime string `json:"lastconfigdatetime"`
}

// DataPointDescriptor describes one data point supported by the unit
type DataPointDescriptor struct {
	UID   int             `json:"uid"`
	RW    string          `json:"rw"`
	Type  int             `json:"type"`
	Descr json.RawMessage `json:"descr,omitempty"`
}

// Writable reports whether the data point accepts setdatapointvalue
func (d DataPointDescriptor) Writable() bool {
	return d.RW == "rw" || d.RW == "w"
}

// DataPointValue is the current value of one data point.
// Value is opaque: numbers decode as json.Number, everything else as-is.
type DataPointValue struct {
	UID    int `json:"uid"`
	Value  any `json:"value"`
	Status int `json:"status"`
}

// Int returns the value as an integer
func (v DataPointValue) Int() (int64, error) {
	switch val := v.Value.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	case float64:
		return int64(val), nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	default:
		return 0, fmt.Errorf("data point %d: value %v is not numeric", v.UID, v.Value)
	}
}

// String returns the value formatted for display
func (v DataPointValue) String() string {
	return fmt.Sprintf("%v", v.Value)
}

// DeviceReference is the static descriptor served by the module at
// /js/data/data.json. It is read-only once loaded.
type DeviceReference map[string]any

// Keys returns the top-level keys of the reference in sorted order
func (r DeviceReference) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
