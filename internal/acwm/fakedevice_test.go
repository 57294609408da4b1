package acwm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// recordedCommand is one request received by fakeDevice
type recordedCommand struct {
	Command string
	Data    map[string]any
}

// fakeDevice emulates the /api.cgi endpoint of a WiFi module.
//
// It issues sequential session identifiers, rejects commands carrying a
// stale one with error code 1 and keeps data point values in memory.
type fakeDevice struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	username string
	password string
	session  string
	logins   int
	values   map[int]any
	commands []recordedCommand

	// failures makes the next n commands of a name fail with code 5
	failures map[string]int
	// expireAlways answers every session command with code 1
	expireAlways bool
	// raw overrides the body for a command name
	raw map[string]string
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	d := &fakeDevice{
		t:        t,
		username: DefaultUsername,
		password: DefaultPassword,
		values:   map[int]any{1: 0, 2: 4, 4: 2, 9: 220, 10: 215},
		failures: make(map[string]int),
		raw:      make(map[string]string),
	}
	d.server = httptest.NewServer(http.HandlerFunc(d.handle))
	t.Cleanup(d.server.Close)
	return d
}

// client returns a client bound to the fake device with a short retry delay
func (d *fakeDevice) client() *Client {
	c := NewClientWithURL(d.server.URL)
	c.RetryDelay = 0
	return c
}

// expire invalidates the current session as the module does when idle
func (d *fakeDevice) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = ""
}

func (d *fakeDevice) failNext(command string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[command] = n
}

func (d *fakeDevice) loginCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logins
}

func (d *fakeDevice) received() []recordedCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]recordedCommand(nil), d.commands...)
}

// count returns how many requests for command were received
func (d *fakeDevice) count(command string) int {
	n := 0
	for _, rc := range d.received() {
		if rc.Command == command {
			n++
		}
	}
	return n
}

func (d *fakeDevice) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != APIPath {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Command string         `json:"command"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.t.Errorf("fake device: bad request body: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, recordedCommand{Command: req.Command, Data: req.Data})

	w.Header().Set("Content-Type", "application/json")
	if body, ok := d.raw[req.Command]; ok {
		_, _ = w.Write([]byte(body))
		return
	}
	if n := d.failures[req.Command]; n > 0 {
		d.failures[req.Command] = n - 1
		writeFailure(w, 5, fmt.Sprintf("injected failure %d", n))
		return
	}

	switch req.Command {
	case CmdLogin:
		if req.Data["username"] != d.username || req.Data["password"] != d.password {
			writeFailure(w, 2, "invalid credentials")
			return
		}
		d.logins++
		d.session = fmt.Sprintf("session-%d", d.logins)
		writeSuccess(w, map[string]any{"id": map[string]any{"sessionID": d.session}})
		return
	case CmdGetInfo:
		writeSuccess(w, map[string]any{"info": map[string]any{
			"deviceModel": "MH-AC-WIFI-1",
			"sn":          "SN0001",
			"fwVersion":   "1.4.0",
			"rssi":        -51,
			"acStatus":    1,
		}})
		return
	}

	if d.expireAlways || d.session == "" || req.Data[sessionField] != d.session {
		writeFailure(w, ErrorCodeSessionInvalid, "invalid session")
		return
	}

	switch req.Command {
	case CmdLogout:
		d.session = ""
		writeSuccess(w, nil)
	case CmdGetCurrentConfig:
		writeSuccess(w, map[string]any{"config": map[string]any{
			"ip": "192.168.1.40", "netmask": "255.255.255.0", "dfltgw": "192.168.1.1", "ssid": "home",
		}})
	case CmdGetAvailableDataPoints:
		writeSuccess(w, map[string]any{"dp": map[string]any{"datapoints": []map[string]any{
			{"uid": 1, "rw": "rw", "type": 1},
			{"uid": 10, "rw": "r", "type": 2},
		}}})
	case CmdGetDataPointValue:
		if req.Data["uid"] == AllDataPoints {
			all := make([]map[string]any, 0, len(d.values))
			for _, uid := range []int{1, 2, 4, 9, 10} {
				all = append(all, map[string]any{"uid": uid, "value": d.values[uid], "status": 0})
			}
			writeSuccess(w, map[string]any{"dpval": all})
			return
		}
		uid := int(req.Data["uid"].(float64))
		value, ok := d.values[uid]
		if !ok {
			writeFailure(w, 4, "unknown uid")
			return
		}
		writeSuccess(w, map[string]any{"dpval": map[string]any{"uid": uid, "value": value, "status": 0}})
	case CmdSetDataPointValue:
		uid := int(req.Data["uid"].(float64))
		d.values[uid] = req.Data["value"]
		writeSuccess(w, map[string]any{"dpval": map[string]any{"uid": uid, "value": req.Data["value"]}})
	case CmdIdentify, CmdReboot:
		writeSuccess(w, nil)
	default:
		writeFailure(w, 3, "unknown command")
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	resp := map[string]any{"success": true}
	if data != nil {
		resp["data"] = data
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeFailure(w http.ResponseWriter, code int, message string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]any{"code": code, "message": message},
	})
}

// recordingObserver collects observer events
type recordingObserver struct {
	mu        sync.Mutex
	completed []string
	reauths   []error
	retries   []int
}

func (o *recordingObserver) CommandCompleted(command string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, command)
}

func (o *recordingObserver) Reauthenticated(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reauths = append(o.reauths, err)
}

func (o *recordingObserver) Retrying(_ string, attempt int, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries = append(o.retries, attempt)
}
