package acwm

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/logging"
)

const (
	// DefaultUsername is the factory username of the WiFi module
	DefaultUsername = "admin"

	// DefaultPassword is the factory password of the WiFi module
	DefaultPassword = "admin"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultRetryAttempts is the total number of attempts made by the
	// data point read/write operations
	DefaultRetryAttempts = 5

	// DefaultRetryDelay is the fixed delay between retry attempts
	DefaultRetryDelay = 100 * time.Millisecond

	// ReferencePath is the unauthenticated, compressed device descriptor
	ReferencePath = "/js/data/data.json"

	// APIPath is the command endpoint
	APIPath = "/api.cgi"
)

// Client talks to one airconwithme / MH-AC-WIFI-1 module.
//
// The client owns the session identifier. Each command (including an
// automatic re-login and its replay) runs under a single lock, so a Client
// is safe for concurrent use; commands are simply issued one at a time.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.1.40")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// AutoLogin enables transparent re-login and replay when the device
	// reports an expired session
	AutoLogin bool

	// RetryAttempts is the total number of attempts for retry-wrapped operations
	RetryAttempts int

	// RetryDelay is the fixed delay between retry attempts
	RetryDelay time.Duration

	// Observer receives command, re-login and retry events (nil = none)
	Observer Observer

	session sessionStore

	// cmdMu serializes command issuance
	cmdMu sync.Mutex

	// stateMu protects the cached reference and info
	stateMu   sync.RWMutex
	initDone  bool
	reference DeviceReference
	info      *Info
}

// NewClient creates a new client for the module at host
// host: Device IP address or hostname (e.g., "192.168.1.40")
// port: Device HTTP port (typically 80)
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a new client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.1.40:80")
func NewClientWithURL(baseURL string) *Client {
	c := &Client{
		BaseURL:       baseURL,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		AutoLogin:     true,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
	}
	c.session.setCredentials(DefaultUsername, DefaultPassword)
	return c
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetAuth sets the credentials used by Login and by automatic re-login
func (c *Client) SetAuth(username, password string) {
	c.session.setCredentials(username, password)
}

// SetRetry configures the retry policy of the data point operations
func (c *Client) SetRetry(attempts int, delay time.Duration) {
	c.RetryAttempts = attempts
	c.RetryDelay = delay
}

// Username returns the username currently used for login
func (c *Client) Username() string {
	username, _ := c.session.credentials()
	return username
}

// Initialized reports whether Init has completed successfully at least once
func (c *Client) Initialized() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.initDone
}

// Reference returns the last loaded device reference, or nil
func (c *Client) Reference() DeviceReference {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.reference
}

// CachedInfo returns the info from the last successful GetInfo, or nil
func (c *Client) CachedInfo() *Info {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.info == nil {
		return nil
	}
	info := *c.info
	return &info
}

// GetSession returns the current session identifier, if any. No I/O.
func (c *Client) GetSession() (string, bool) {
	return c.session.get()
}

// Login authenticates against the module and stores the session identifier.
// Empty arguments fall back to the configured credentials.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return c.login(ctx, username, password)
}

// login performs the login command. Callers must hold cmdMu.
func (c *Client) login(ctx context.Context, username, password string) (string, error) {
	username, password = c.session.resolve(username, password)

	result, err := c.send(ctx, Command{
		Name: CmdLogin,
		Data: map[string]any{"username": username, "password": password},
	})
	if err != nil {
		return "", err
	}
	if !result.Success {
		return "", NewAuthError(result)
	}

	var data struct {
		ID struct {
			SessionID string `json:"sessionID"`
		} `json:"id"`
	}
	if err := result.decodeData(CmdLogin, &data); err != nil {
		return "", err
	}
	if data.ID.SessionID == "" {
		return "", NewDecodeError(CmdLogin, "login response has no session identifier", result.StatusCode, nil)
	}

	c.session.setCredentials(username, password)
	c.session.set(data.ID.SessionID)

	logging.Debug("Logged in", zap.String("device", c.BaseURL), zap.String("username", username))
	return data.ID.SessionID, nil
}

// Logout ends the session. The local session is cleared even when the
// logout command fails.
func (c *Client) Logout(ctx context.Context) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	defer c.session.clear()

	_, err := c.dispatch(ctx, Command{Name: CmdLogout, WithSession: true})
	if err != nil {
		logging.Debug("Logout command failed, session cleared locally",
			zap.String("device", c.BaseURL),
			zap.Error(err),
		)
	}
	return err
}

// GetInfo returns unit information. It does not require a session.
func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	result, err := c.do(ctx, Command{Name: CmdGetInfo})
	if err != nil {
		return nil, err
	}

	var data struct {
		Info Info `json:"info"`
	}
	if err := result.decodeData(CmdGetInfo, &data); err != nil {
		return nil, err
	}

	c.stateMu.Lock()
	info := data.Info
	c.info = &info
	c.stateMu.Unlock()

	return &data.Info, nil
}

// GetCurrentConfig returns the network configuration of the module
func (c *Client) GetCurrentConfig(ctx context.Context) (*NetworkConfig, error) {
	result, err := c.do(ctx, Command{Name: CmdGetCurrentConfig, WithSession: true})
	if err != nil {
		return nil, err
	}

	var data struct {
		Config NetworkConfig `json:"config"`
	}
	if err := result.decodeData(CmdGetCurrentConfig, &data); err != nil {
		return nil, err
	}
	return &data.Config, nil
}

// Identify flashes the module's LED
func (c *Client) Identify(ctx context.Context) (*CommandResult, error) {
	return c.do(ctx, Command{Name: CmdIdentify, WithSession: true})
}

// Reboot restarts the module
func (c *Client) Reboot(ctx context.Context) (*CommandResult, error) {
	return c.do(ctx, Command{Name: CmdReboot, WithSession: true})
}

// do runs a single command under the command lock, without retry
func (c *Client) do(ctx context.Context, cmd Command) (*CommandResult, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return c.dispatch(ctx, cmd)
}
