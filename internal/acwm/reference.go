package acwm

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/logging"
)

const referenceCommand = "init"

// Init fetches the static device reference, caches it and marks the client
// initialized. It needs no session and is never retried. Calling it again
// refetches; the last successful load wins.
func (c *Client) Init(ctx context.Context) (DeviceReference, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+ReferencePath, nil)
	if err != nil {
		return nil, NewTransportError(referenceCommand, "failed to create GET request", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewTransportError(referenceCommand, "GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewStatusError(referenceCommand, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(referenceCommand, "failed to read response body", err)
	}

	ref, err := decodeReference(body)
	if err != nil {
		return nil, NewDecodeError(referenceCommand, fmt.Sprintf("cannot load %s", ReferencePath), resp.StatusCode, err)
	}

	c.stateMu.Lock()
	c.reference = ref
	c.initDone = true
	c.stateMu.Unlock()

	logging.Debug("Device reference loaded",
		zap.String("device", c.BaseURL),
		zap.Int("compressed_bytes", len(body)),
		zap.Int("keys", len(ref)),
	)
	return ref, nil
}

// decodeReference inflates a gzip or zlib body and parses the JSON inside
func decodeReference(body []byte) (DeviceReference, error) {
	var (
		r   io.ReadCloser
		err error
	)
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		r, err = gzip.NewReader(bytes.NewReader(body))
	} else {
		r, err = zlib.NewReader(bytes.NewReader(body))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	defer func() { _ = r.Close() }()

	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}

	var ref DeviceReference
	if err := json.Unmarshal(plain, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	return ref, nil
}
