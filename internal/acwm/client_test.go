package acwm

import (
	"context"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("192.168.1.40", 80)

	if client.BaseURL != "http://192.168.1.40:80" {
		t.Errorf("BaseURL = %s, want http://192.168.1.40:80", client.BaseURL)
	}
	if client.Username() != DefaultUsername {
		t.Errorf("Username = %s, want %s", client.Username(), DefaultUsername)
	}
	if !client.AutoLogin {
		t.Error("AutoLogin should default to true")
	}
	if client.RetryAttempts != 5 {
		t.Errorf("RetryAttempts = %d, want 5", client.RetryAttempts)
	}
	if client.RetryDelay != 100*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 100ms", client.RetryDelay)
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient should not be nil")
	}
	if _, ok := client.GetSession(); ok {
		t.Error("new client should have no session")
	}
	if client.Initialized() {
		t.Error("new client should not be initialized")
	}
}

func TestSetTimeout(t *testing.T) {
	client := NewClient("192.168.1.40", 80)
	client.SetTimeout(3 * time.Second)

	if client.HTTPClient.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", client.HTTPClient.Timeout)
	}
}

func TestSetRetry(t *testing.T) {
	client := NewClient("192.168.1.40", 80)
	client.SetRetry(3, 250*time.Millisecond)

	delay, attempts := client.retryPolicy()
	if attempts != 3 || delay != 250*time.Millisecond {
		t.Errorf("retryPolicy() = (%v, %d), want (250ms, 3)", delay, attempts)
	}

	client.SetRetry(0, -time.Second)
	delay, attempts = client.retryPolicy()
	if attempts != DefaultRetryAttempts || delay != 0 {
		t.Errorf("retryPolicy() = (%v, %d), want (0s, %d)", delay, attempts, DefaultRetryAttempts)
	}
}

func TestLogin(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()

	token, err := client.Login(context.Background(), "admin", "admin")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "session-1" {
		t.Errorf("token = %s, want session-1", token)
	}

	got, ok := client.GetSession()
	if !ok || got != token {
		t.Errorf("GetSession() = (%s, %v), want (%s, true)", got, ok, token)
	}

	cmds := device.received()
	if len(cmds) != 1 || cmds[0].Command != CmdLogin {
		t.Fatalf("received %+v, want a single login", cmds)
	}
	if _, present := cmds[0].Data[sessionField]; present {
		t.Error("login must not carry a session identifier")
	}
}

func TestLogin_FallsBackToStoredCredentials(t *testing.T) {
	device := newFakeDevice(t)
	device.username, device.password = "installer", "s3cret"
	client := device.client()
	client.SetAuth("installer", "s3cret")

	if _, err := client.Login(context.Background(), "", ""); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	cmds := device.received()
	if cmds[0].Data["username"] != "installer" || cmds[0].Data["password"] != "s3cret" {
		t.Errorf("login data = %v, want stored credentials", cmds[0].Data)
	}
}

func TestLogin_Rejected(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()

	_, err := client.Login(context.Background(), "admin", "wrong")
	if err == nil {
		t.Fatal("Login() should fail with wrong password")
	}
	if !IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if _, ok := client.GetSession(); ok {
		t.Error("failed login must not store a session")
	}
	if client.Username() != DefaultUsername {
		t.Errorf("failed login must not replace credentials, username = %s", client.Username())
	}
}

func TestLogin_MissingSessionID(t *testing.T) {
	device := newFakeDevice(t)
	device.raw[CmdLogin] = `{"success":true,"data":{"id":{}}}`
	client := device.client()

	_, err := client.Login(context.Background(), "", "")
	if !IsDecodeError(err) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()
	ctx := context.Background()

	if _, err := client.Login(ctx, "", ""); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := client.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := client.GetSession(); ok {
		t.Error("session should be cleared after logout")
	}
}

func TestLogout_ClearsSessionOnFailure(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()
	ctx := context.Background()

	if _, err := client.Login(ctx, "", ""); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	device.expire()

	if err := client.Logout(ctx); err == nil {
		t.Error("Logout() should report the device failure")
	}
	if _, ok := client.GetSession(); ok {
		t.Error("session should be cleared even when logout fails")
	}
	if device.loginCount() != 1 {
		t.Errorf("logout must not trigger a re-login, logins = %d", device.loginCount())
	}
}

func TestGetInfo(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()

	if client.CachedInfo() != nil {
		t.Error("CachedInfo() should be nil before GetInfo")
	}

	info, err := client.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if info.DeviceModel != "MH-AC-WIFI-1" || info.SerialNumber != "SN0001" || info.RSSI != -51 {
		t.Errorf("GetInfo() = %+v", info)
	}

	cached := client.CachedInfo()
	if cached == nil || cached.SerialNumber != "SN0001" {
		t.Errorf("CachedInfo() = %+v, want cached info", cached)
	}
	if device.loginCount() != 0 {
		t.Error("getinfo must not require a login")
	}
}

func TestGetCurrentConfig(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()
	ctx := context.Background()

	if _, err := client.Login(ctx, "", ""); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	cfg, err := client.GetCurrentConfig(ctx)
	if err != nil {
		t.Fatalf("GetCurrentConfig() error = %v", err)
	}
	if cfg.IP != "192.168.1.40" || cfg.DefaultGateway != "192.168.1.1" {
		t.Errorf("GetCurrentConfig() = %+v", cfg)
	}
}

func TestIdentifyAndReboot(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()
	ctx := context.Background()

	if _, err := client.Identify(ctx); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if _, err := client.Reboot(ctx); err != nil {
		t.Fatalf("Reboot() error = %v", err)
	}

	// Both commands logged in transparently, once
	if device.loginCount() != 1 {
		t.Errorf("logins = %d, want 1", device.loginCount())
	}
	if device.count(CmdIdentify) != 2 {
		t.Errorf("identify sent %d times, want 2 (rejected, replayed)", device.count(CmdIdentify))
	}
}
