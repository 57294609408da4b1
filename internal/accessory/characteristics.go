package accessory

import (
	"math"
	"sort"
)

// Active characteristic values
const (
	Inactive = 0
	Active   = 1
)

// Target heater/cooler state values
const (
	TargetAuto = 0
	TargetHeat = 1
	TargetCool = 2
)

// Current heater/cooler state values
const (
	CurrentInactive = 0
	CurrentIdle     = 1
	CurrentHeating  = 2
	CurrentCooling  = 3
)

// Lock physical controls values
const (
	LockDisabled = 0
	LockEnabled  = 1
)

// Device user modes (uid 2)
const (
	deviceModeAuto = 0
	deviceModeHeat = 1
	deviceModeDry  = 2
	deviceModeFan  = 3
	deviceModeCool = 4
)

// Characteristic names
const (
	NameActive             = "active"
	NameMode               = "mode"
	NameRotationSpeed      = "rotationspeed"
	NameSetpoint           = "setpoint"
	NameTemperature        = "temperature"
	NameLockControls       = "lockphysicalcontrols"
	NameMinTemperature     = "mintemp"
	NameMaxTemperature     = "maxtemp"
	NameOutdoorTemperature = "outdoortemperature"

	// NameCurrentState is derived from mode, temperature and setpoint and
	// has no data point of its own
	NameCurrentState = "currentstate"
)

// autoThreshold is the distance from the setpoint, in device units
// (tenths of a degree), at which auto mode is reported as heating or cooling
const autoThreshold = 10

// Props constrains the values accepted for a writable characteristic
type Props struct {
	Min  float64 `json:"minValue"`
	Max  float64 `json:"maxValue"`
	Step float64 `json:"minStep"`
}

// Contains reports whether v is within range and on a step boundary
func (p Props) Contains(v float64) bool {
	if v < p.Min || v > p.Max {
		return false
	}
	if p.Step <= 0 {
		return true
	}
	steps := (v - p.Min) / p.Step
	return math.Abs(steps-math.Round(steps)) < 1e-9
}

// Characteristic binds an accessory characteristic to a device data point
type Characteristic struct {
	Name     string `json:"name"`
	UID      int    `json:"uid"`
	Writable bool   `json:"writable"`
	Props    *Props `json:"props,omitempty"`

	toDevice   func(float64) int64
	fromDevice func(int64) float64
}

// ToDevice converts an accessory value to the device representation
func (c Characteristic) ToDevice(v float64) int64 { return c.toDevice(v) }

// FromDevice converts a device value to the accessory representation
func (c Characteristic) FromDevice(v int64) float64 { return c.fromDevice(v) }

var (
	rotationProps  = &Props{Min: 0, Max: 4, Step: 1}
	thresholdProps = &Props{Min: 18, Max: 30, Step: 1}
)

var characteristics = map[string]Characteristic{
	NameActive:             {Name: NameActive, UID: 1, Writable: true, toDevice: activeToDevice, fromDevice: activeFromDevice},
	NameMode:               {Name: NameMode, UID: 2, Writable: true, toDevice: modeToDevice, fromDevice: modeFromDevice},
	NameRotationSpeed:      {Name: NameRotationSpeed, UID: 4, Writable: true, Props: rotationProps, toDevice: identityToDevice, fromDevice: identityFromDevice},
	NameSetpoint:           {Name: NameSetpoint, UID: 9, Writable: true, Props: thresholdProps, toDevice: tempToDevice, fromDevice: tempFromDevice},
	NameTemperature:        {Name: NameTemperature, UID: 10, toDevice: tempToDevice, fromDevice: tempFromDevice},
	NameLockControls:       {Name: NameLockControls, UID: 12, Writable: true, toDevice: lockToDevice, fromDevice: lockFromDevice},
	NameMinTemperature:     {Name: NameMinTemperature, UID: 35, toDevice: tempToDevice, fromDevice: tempFromDevice},
	NameMaxTemperature:     {Name: NameMaxTemperature, UID: 36, toDevice: tempToDevice, fromDevice: tempFromDevice},
	NameOutdoorTemperature: {Name: NameOutdoorTemperature, UID: 37, toDevice: tempToDevice, fromDevice: tempFromDevice},
}

// Lookup returns the characteristic with the given name
func Lookup(name string) (Characteristic, bool) {
	c, ok := characteristics[name]
	return c, ok
}

// Characteristics returns every data point backed characteristic, ordered by uid
func Characteristics() []Characteristic {
	list := make([]Characteristic, 0, len(characteristics))
	for _, c := range characteristics {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UID < list[j].UID })
	return list
}

func activeToDevice(v float64) int64 {
	if int(v) == Active {
		return 1
	}
	return 0
}

func activeFromDevice(v int64) float64 {
	if v == 1 {
		return Active
	}
	return Inactive
}

func modeToDevice(v float64) int64 {
	switch int(v) {
	case TargetHeat:
		return deviceModeHeat
	case TargetCool:
		return deviceModeCool
	default:
		return deviceModeAuto
	}
}

// modeFromDevice maps dry and fan, which have no target state, to auto
func modeFromDevice(v int64) float64 {
	switch v {
	case deviceModeCool:
		return TargetCool
	case deviceModeHeat:
		return TargetHeat
	default:
		return TargetAuto
	}
}

func identityToDevice(v float64) int64   { return int64(math.Round(v)) }
func identityFromDevice(v int64) float64 { return float64(v) }

// Device temperatures are tenths of a degree Celsius
func tempToDevice(v float64) int64   { return int64(math.Round(v * 10)) }
func tempFromDevice(v int64) float64 { return float64(v) / 10 }

func lockToDevice(v float64) int64 {
	if int(v) == LockEnabled {
		return 1
	}
	return 0
}

func lockFromDevice(v int64) float64 {
	if v == 1 {
		return LockEnabled
	}
	return LockDisabled
}

// currentState derives the heater/cooler state from the device mode. In
// auto mode the unit does not report what it is doing, so the room
// temperature is compared with the setpoint.
func currentState(mode, temperature, setpoint int64) int {
	switch mode {
	case deviceModeCool:
		return CurrentCooling
	case deviceModeHeat:
		return CurrentHeating
	case deviceModeDry, deviceModeFan:
		return CurrentIdle
	}
	switch {
	case temperature <= setpoint-autoThreshold:
		return CurrentHeating
	case temperature >= setpoint+autoThreshold:
		return CurrentCooling
	default:
		return CurrentIdle
	}
}
