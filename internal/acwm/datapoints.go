package acwm

import (
	"context"
	"encoding/json"
)

// GetAvailableDataPoints returns the data points supported by the unit
func (c *Client) GetAvailableDataPoints(ctx context.Context) ([]DataPointDescriptor, error) {
	result, err := c.do(ctx, Command{Name: CmdGetAvailableDataPoints, WithSession: true})
	if err != nil {
		return nil, err
	}

	var data struct {
		DP struct {
			DataPoints []DataPointDescriptor `json:"datapoints"`
		} `json:"dp"`
	}
	if err := result.decodeData(CmdGetAvailableDataPoints, &data); err != nil {
		return nil, err
	}
	return data.DP.DataPoints, nil
}

// GetDataPointValue reads one data point. The uid is passed through as-is.
func (c *Client) GetDataPointValue(ctx context.Context, uid int) (*DataPointValue, error) {
	raw, err := c.getDataPointValue(ctx, uid)
	if err != nil {
		return nil, err
	}

	var value DataPointValue
	if err := decodeDPVal(raw, &value); err != nil {
		return nil, err
	}
	return &value, nil
}

// GetAllDataPointValues reads every data point in a single request
func (c *Client) GetAllDataPointValues(ctx context.Context) ([]DataPointValue, error) {
	raw, err := c.getDataPointValue(ctx, AllDataPoints)
	if err != nil {
		return nil, err
	}

	var values []DataPointValue
	if err := decodeDPVal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// getDataPointValue issues a retry-wrapped getdatapointvalue and returns the
// raw dpval payload. uid is either a data point number or AllDataPoints.
func (c *Client) getDataPointValue(ctx context.Context, uid any) (*CommandResult, error) {
	delay, attempts := c.retryPolicy()
	return c.withRetry(ctx, Command{
		Name:        CmdGetDataPointValue,
		Data:        map[string]any{"uid": uid},
		WithSession: true,
	}, delay, attempts)
}

// SetDataPointValue writes one data point and returns the raw result.
// No catalog validation is performed; the device decides.
func (c *Client) SetDataPointValue(ctx context.Context, uid int, value any) (*CommandResult, error) {
	delay, attempts := c.retryPolicy()
	return c.withRetry(ctx, Command{
		Name:        CmdSetDataPointValue,
		Data:        map[string]any{"uid": uid, "value": value},
		WithSession: true,
	}, delay, attempts)
}

func decodeDPVal(result *CommandResult, v any) error {
	var data struct {
		DPVal json.RawMessage `json:"dpval"`
	}
	if err := result.decodeData(CmdGetDataPointValue, &data); err != nil {
		return err
	}
	if len(data.DPVal) == 0 {
		return NewDecodeError(CmdGetDataPointValue, "response has no dpval", result.StatusCode, nil)
	}
	inner := &CommandResult{Data: data.DPVal, StatusCode: result.StatusCode}
	return inner.decodeData(CmdGetDataPointValue, v)
}
