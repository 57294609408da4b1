package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/mhacwifi/internal/accessory"
	"github.com/muurk/mhacwifi/internal/acwm"
	"github.com/muurk/mhacwifi/internal/metrics"
)

// fakeAccessory serves characteristic values from memory
type fakeAccessory struct {
	mu         sync.Mutex
	values     map[string]float64
	err        error
	identified int
}

func newFakeAccessory() *fakeAccessory {
	return &fakeAccessory{values: map[string]float64{
		accessory.NameActive:      accessory.Active,
		accessory.NameTemperature: 21.5,
		accessory.NameSetpoint:    22,
	}}
}

func (f *fakeAccessory) Information() accessory.Information {
	return accessory.Information{}.WithDefaults()
}

func (f *fakeAccessory) Get(_ context.Context, name string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := accessory.Lookup(name); !ok {
		return 0, fmt.Errorf("%w: %s", accessory.ErrUnknownCharacteristic, name)
	}
	return f.values[name], nil
}

func (f *fakeAccessory) Set(_ context.Context, name string, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	c, ok := accessory.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", accessory.ErrUnknownCharacteristic, name)
	}
	if !c.Writable {
		return fmt.Errorf("%w: %s", accessory.ErrReadOnly, name)
	}
	if c.Props != nil && !c.Props.Contains(value) {
		return fmt.Errorf("%w: %s", accessory.ErrOutOfRange, name)
	}
	f.values[name] = value
	return nil
}

func (f *fakeAccessory) Snapshot(_ context.Context) (*accessory.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	values := make(map[string]float64, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	return &accessory.State{Values: values, CurrentState: accessory.CurrentIdle}, nil
}

func (f *fakeAccessory) Identify(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identified++
	return f.err
}

func (f *fakeAccessory) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAccessory) value(name string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

func (f *fakeAccessory) identifyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identified
}

func (f *fakeAccessory) setValue(name string, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
}

func newTestBridge(t *testing.T) (*Server, *fakeAccessory, *httptest.Server) {
	t.Helper()
	acc := newFakeAccessory()
	s := New(acc, metrics.NewRegistry(), Config{PollInterval: time.Hour})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.hub.closeAll()
		ts.Close()
	})
	return s, acc, ts
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestNewDefaults(t *testing.T) {
	s := New(newFakeAccessory(), nil, Config{})
	assert.Equal(t, DefaultPort, s.config.Port)
	assert.Equal(t, DefaultPollInterval, s.config.PollInterval)
	assert.Equal(t, ":8581", s.Addr())
}

func TestHandleAccessory(t *testing.T) {
	_, _, ts := newTestBridge(t)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/accessory", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got accessoryResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, accessory.DefaultManufacturer, got.Information.Manufacturer)
	assert.Len(t, got.Characteristics, 9)
}

func TestHandleGetCharacteristic(t *testing.T) {
	_, _, ts := newTestBridge(t)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/characteristics/temperature", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"name":"temperature","value":21.5}`, string(body))

	resp, _ = doRequest(t, http.MethodGet, ts.URL+"/api/characteristics/humidity", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleSetCharacteristic(t *testing.T) {
	_, acc, ts := newTestBridge(t)

	resp, _ := doRequest(t, http.MethodPut, ts.URL+"/api/characteristics/setpoint", `{"value": 24}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 24.0, acc.value(accessory.NameSetpoint))

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"read-only", "temperature", `{"value": 20}`, http.StatusMethodNotAllowed},
		{"out of range", "setpoint", `{"value": 35}`, http.StatusBadRequest},
		{"missing value", "setpoint", `{}`, http.StatusBadRequest},
		{"bad json", "setpoint", `value=20`, http.StatusBadRequest},
		{"unknown", "swing", `{"value": 1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doRequest(t, http.MethodPut, ts.URL+"/api/characteristics/"+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHandleState(t *testing.T) {
	_, _, ts := newTestBridge(t)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state accessory.State
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, 22.0, state.Values[accessory.NameSetpoint])
	assert.Equal(t, accessory.CurrentIdle, state.CurrentState)
}

func TestHandleDeviceFailure(t *testing.T) {
	_, acc, ts := newTestBridge(t)
	acc.setErr(acwm.NewResultError(acwm.CmdGetDataPointValue, &acwm.CommandResult{Error: &acwm.CommandError{Code: 4, Message: "bad uid"}}))

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/state", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got errorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Device error 4: bad uid", got.Error)
	assert.NotEmpty(t, got.Hints)

	acc.setErr(acwm.NewTransportError(acwm.CmdIdentify, "POST request failed", errors.New("timeout")))
	resp, _ = doRequest(t, http.MethodPost, ts.URL+"/api/identify", "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestHandleIdentify(t *testing.T) {
	_, acc, ts := newTestBridge(t)

	resp, _ := doRequest(t, http.MethodPost, ts.URL+"/api/identify", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, acc.identifyCount())

	resp, _ = doRequest(t, http.MethodGet, ts.URL+"/api/identify", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, ts := newTestBridge(t)

	doRequest(t, http.MethodGet, ts.URL+"/health", "")
	resp, body := doRequest(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `mhacwifi_bridge_http_requests_total{code="200",route="GET /health"} 1`)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) Update {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	return u
}

func TestWebSocket_PollBroadcastsChanges(t *testing.T) {
	s, acc, ts := newTestBridge(t)
	ctx := context.Background()

	// Prime the known values before anyone subscribes
	s.poll(ctx)

	conn := dialWS(t, ts)
	initial := make(map[string]float64)
	for i := 0; i < 3; i++ {
		u := readUpdate(t, conn)
		initial[u.Name] = u.Value
	}
	assert.Equal(t, 21.5, initial[accessory.NameTemperature])
	require.Eventually(t, func() bool { return s.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	acc.setValue(accessory.NameTemperature, 23)
	s.poll(ctx)

	u := readUpdate(t, conn)
	assert.Equal(t, Update{Name: accessory.NameTemperature, Value: 23}, u)
}

func TestWebSocket_SetBroadcasts(t *testing.T) {
	s, _, ts := newTestBridge(t)
	conn := dialWS(t, ts)
	require.Eventually(t, func() bool { return s.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	resp, _ := doRequest(t, http.MethodPut, ts.URL+"/api/characteristics/rotationspeed", `{"value": 3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, Update{Name: accessory.NameRotationSpeed, Value: 3}, readUpdate(t, conn))
}

func TestWebSocket_ShutdownDisconnects(t *testing.T) {
	s, _, ts := newTestBridge(t)
	conn := dialWS(t, ts)
	require.Eventually(t, func() bool { return s.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, 0, s.Subscribers())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)
}

func TestPollFailureRecorded(t *testing.T) {
	s, acc, _ := newTestBridge(t)
	acc.setErr(errors.New("unreachable"))

	s.poll(context.Background())
	assert.Empty(t, s.hub.last)
}

func TestServe_StopsOnCancel(t *testing.T) {
	s := New(newFakeAccessory(), nil, Config{PollInterval: time.Hour})

	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
