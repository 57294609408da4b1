package acwm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/logging"
)

// dispatch sends a command and handles session expiry.
//
// A failed command with error code 1 triggers one login with the stored
// credentials followed by exactly one replay. The replay is sent with
// send, not dispatch, so a second expiry is reported instead of looping.
// Callers must hold cmdMu.
func (c *Client) dispatch(ctx context.Context, cmd Command) (*CommandResult, error) {
	result, err := c.send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if result.Success {
		return result, nil
	}

	if !c.shouldReauth(cmd, result) {
		return nil, NewResultError(cmd.Name, result)
	}

	logging.LogReauth(c.BaseURL, cmd.Name, "session expired, logging in")
	if _, err := c.login(ctx, "", ""); err != nil {
		c.observe(func(o Observer) { o.Reauthenticated(cmd.Name, err) })
		logging.LogReauth(c.BaseURL, cmd.Name, "login failed")
		return nil, err
	}
	c.observe(func(o Observer) { o.Reauthenticated(cmd.Name, nil) })

	result, err = c.send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, NewResultError(cmd.Name, result)
	}
	return result, nil
}

// shouldReauth reports whether a failed result is answered with a re-login
func (c *Client) shouldReauth(cmd Command, result *CommandResult) bool {
	if !c.AutoLogin {
		return false
	}
	if cmd.Name == CmdLogin || cmd.Name == CmdLogout {
		return false
	}
	return result.SessionExpired()
}

// send performs one POST to /api.cgi and parses the response.
// A success:false answer is returned as a result, not an error.
func (c *Client) send(ctx context.Context, cmd Command) (*CommandResult, error) {
	token, _ := c.session.get()
	body, err := json.Marshal(request{Command: cmd.Name, Data: cmd.payload(token)})
	if err != nil {
		return nil, NewDecodeError(cmd.Name, "failed to encode command", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+APIPath, bytes.NewReader(body))
	if err != nil {
		return nil, NewTransportError(cmd.Name, "failed to create POST request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(body))

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.observe(func(o Observer) { o.CommandCompleted(cmd.Name, time.Since(start), err) })
		return nil, NewTransportError(cmd.Name, "POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		tErr := NewTransportError(cmd.Name, "failed to read response body", err)
		c.observe(func(o Observer) { o.CommandCompleted(cmd.Name, time.Since(start), tErr) })
		return nil, tErr
	}

	var result CommandResult
	if err := json.Unmarshal(raw, &result); err != nil {
		dErr := NewDecodeError(cmd.Name, "failed to parse response", resp.StatusCode, err)
		c.observe(func(o Observer) { o.CommandCompleted(cmd.Name, time.Since(start), dErr) })
		logging.LogRawBytes("Undecodable response", raw)
		return nil, dErr
	}
	result.StatusCode = resp.StatusCode

	var resultErr error
	if !result.Success {
		resultErr = NewResultError(cmd.Name, &result)
	}
	c.observe(func(o Observer) { o.CommandCompleted(cmd.Name, time.Since(start), resultErr) })
	logging.LogCommand(c.BaseURL, cmd.Name, resp.StatusCode, result.Success, time.Since(start))
	if !result.Success && result.Error != nil {
		logging.Debug("Command rejected",
			zap.String("device", c.BaseURL),
			zap.String("command", cmd.Name),
			zap.Int("code", result.Error.Code),
			zap.String("message", result.Error.Message),
		)
	}

	return &result, nil
}

func (c *Client) observe(fn func(Observer)) {
	if c.Observer != nil {
		fn(c.Observer)
	}
}
