package accessory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/acwm"
	"github.com/muurk/mhacwifi/internal/logging"
)

// Accessory information defaults
const (
	DefaultManufacturer = "Mitsubishi Heavy Industries"
	DefaultModel        = "MH-AC-WIFI-1"
	DefaultSerialNumber = "123-456-789"
)

var (
	// ErrUnknownCharacteristic is returned for a name with no mapping
	ErrUnknownCharacteristic = errors.New("unknown characteristic")

	// ErrReadOnly is returned when writing a read-only characteristic
	ErrReadOnly = errors.New("characteristic is read-only")

	// ErrOutOfRange is returned for a value outside the characteristic props
	ErrOutOfRange = errors.New("value out of range")
)

// DataPointClient is the subset of the device client the accessory needs
type DataPointClient interface {
	GetDataPointValue(ctx context.Context, uid int) (*acwm.DataPointValue, error)
	GetAllDataPointValues(ctx context.Context) ([]acwm.DataPointValue, error)
	SetDataPointValue(ctx context.Context, uid int, value any) (*acwm.CommandResult, error)
	Identify(ctx context.Context) (*acwm.CommandResult, error)
}

// Information describes the accessory to its host
type Information struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}

// WithDefaults fills empty fields with the default values
func (i Information) WithDefaults() Information {
	if i.Manufacturer == "" {
		i.Manufacturer = DefaultManufacturer
	}
	if i.Model == "" {
		i.Model = DefaultModel
	}
	if i.SerialNumber == "" {
		i.SerialNumber = DefaultSerialNumber
	}
	return i
}

// State is a snapshot of every characteristic
type State struct {
	Values       map[string]float64 `json:"values"`
	CurrentState int                `json:"current_state"`
}

// Accessory exposes a heater/cooler view of one air conditioning unit
type Accessory struct {
	client DataPointClient
	info   Information
}

// New creates an accessory backed by client
func New(client DataPointClient, info Information) *Accessory {
	return &Accessory{client: client, info: info.WithDefaults()}
}

// Information returns the accessory information
func (a *Accessory) Information() Information {
	return a.info
}

// Get reads one characteristic and converts it to the accessory representation
func (a *Accessory) Get(ctx context.Context, name string) (float64, error) {
	if name == NameCurrentState {
		state, err := a.CurrentState(ctx)
		return float64(state), err
	}

	c, ok := Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCharacteristic, name)
	}

	raw, err := a.read(ctx, c.UID)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", name, err)
	}
	value := c.FromDevice(raw)

	logging.Debug("Characteristic read", zap.String("name", name), zap.Int64("device_value", raw), zap.Float64("value", value))
	return value, nil
}

// Set converts value to the device representation and writes it
func (a *Accessory) Set(ctx context.Context, name string, value float64) error {
	c, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCharacteristic, name)
	}
	if !c.Writable {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if c.Props != nil && !c.Props.Contains(value) {
		return fmt.Errorf("%w: %s = %v (min %v, max %v, step %v)",
			ErrOutOfRange, name, value, c.Props.Min, c.Props.Max, c.Props.Step)
	}

	raw := c.ToDevice(value)
	if _, err := a.client.SetDataPointValue(ctx, c.UID, raw); err != nil {
		return fmt.Errorf("setting %s to %v: %w", name, value, err)
	}

	logging.Info("Characteristic set", zap.String("name", name), zap.Float64("value", value), zap.Int64("device_value", raw))
	return nil
}

// CurrentState reports whether the unit is heating, cooling or idle
func (a *Accessory) CurrentState(ctx context.Context) (int, error) {
	mode, err := a.read(ctx, characteristics[NameMode].UID)
	if err != nil {
		return 0, fmt.Errorf("reading mode: %w", err)
	}
	if mode != deviceModeAuto {
		return currentState(mode, 0, 0), nil
	}

	temperature, err := a.read(ctx, characteristics[NameTemperature].UID)
	if err != nil {
		return 0, fmt.Errorf("reading temperature: %w", err)
	}
	setpoint, err := a.read(ctx, characteristics[NameSetpoint].UID)
	if err != nil {
		return 0, fmt.Errorf("reading setpoint: %w", err)
	}
	return currentState(mode, temperature, setpoint), nil
}

// Snapshot reads every data point in one request. Characteristics the unit
// does not report are absent from the result.
func (a *Accessory) Snapshot(ctx context.Context) (*State, error) {
	values, err := a.client.GetAllDataPointValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading data points: %w", err)
	}

	byUID := make(map[int]int64, len(values))
	for _, v := range values {
		n, err := v.Int()
		if err != nil {
			continue
		}
		byUID[v.UID] = n
	}

	state := &State{Values: make(map[string]float64, len(characteristics))}
	for _, c := range characteristics {
		if raw, ok := byUID[c.UID]; ok {
			state.Values[c.Name] = c.FromDevice(raw)
		}
	}
	state.CurrentState = currentState(
		byUID[characteristics[NameMode].UID],
		byUID[characteristics[NameTemperature].UID],
		byUID[characteristics[NameSetpoint].UID],
	)
	state.Values[NameCurrentState] = float64(state.CurrentState)
	return state, nil
}

// Identify asks the unit to identify itself
func (a *Accessory) Identify(ctx context.Context) error {
	logging.Info("Identify requested")
	if _, err := a.client.Identify(ctx); err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	return nil
}

func (a *Accessory) read(ctx context.Context, uid int) (int64, error) {
	v, err := a.client.GetDataPointValue(ctx, uid)
	if err != nil {
		return 0, err
	}
	return v.Int()
}
