package device

import (
	"fmt"
	"math"
)

// Validation limits.
const (
	maxIDLength         = 128
	maxPropertyKeys     = 64
	maxPropertyDepth    = 4
	maxStringValueLen   = 1024
	minHealthPercentage = 0.0
	maxHealthPercentage = 100.0
)

// Pre-computed validation sets for O(1) lookups.
var (
	validDeviceTypes map[DeviceType]struct{}
	validStates      map[State]struct{}
)

func init() {
	validDeviceTypes = make(map[DeviceType]struct{}, len(AllDeviceTypes()))
	for _, t := range AllDeviceTypes() {
		validDeviceTypes[t] = struct{}{}
	}

	validStates = make(map[State]struct{}, len(AllStates()))
	for _, s := range AllStates() {
		validStates[s] = struct{}{}
	}
}

// ValidDeviceType reports whether t is a recognised device type.
func ValidDeviceType(t DeviceType) bool {
	_, ok := validDeviceTypes[t]
	return ok
}

// ValidState reports whether s is a recognised device state.
func ValidState(s State) bool {
	_, ok := validStates[s]
	return ok
}

// ValidateDevice checks a fully-built device.
func ValidateDevice(d *Device) error {
	if d.ID == "" {
		return fmt.Errorf("%w: deviceId is required", ErrInvalidDevice)
	}
	if len(d.ID) > maxIDLength {
		return fmt.Errorf("%w: deviceId exceeds %d characters", ErrInvalidDevice, maxIDLength)
	}
	if !ValidDeviceType(d.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceType, d.Type)
	}
	if !ValidState(d.State) {
		return fmt.Errorf("%w: %q", ErrInvalidState, d.State)
	}
	if err := validateFinite(d); err != nil {
		return err
	}
	if d.HealthPercentage < minHealthPercentage || d.HealthPercentage > maxHealthPercentage {
		return fmt.Errorf("%w: healthPercentage %v outside [0,100]", ErrInvalidDevice, d.HealthPercentage)
	}
	if d.MaxPower < 0 {
		return fmt.Errorf("%w: maxPower must not be negative", ErrInvalidDevice)
	}
	if d.Efficiency < 0 {
		return fmt.Errorf("%w: efficiency must not be negative", ErrInvalidDevice)
	}
	if d.PowerOutput < 0 || d.PowerInput < 0 {
		return fmt.Errorf("%w: power values must not be negative", ErrInvalidDevice)
	}
	return ValidateProperties(d.SpecialProperties)
}

func validateFinite(d *Device) error {
	values := map[string]float64{
		"position.x":       d.Position.X,
		"position.y":       d.Position.Y,
		"rotation":         d.Rotation,
		"powerOutput":      d.PowerOutput,
		"powerInput":       d.PowerInput,
		"maxPower":         d.MaxPower,
		"efficiency":       d.Efficiency,
		"healthPercentage": d.HealthPercentage,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidDevice, name)
		}
	}
	return nil
}

// ValidateProperties checks that every value in p is a string, number,
// boolean or nested map of the same kinds.
func ValidateProperties(p map[string]any) error {
	return validatePropertyMap(p, 1)
}

func validatePropertyMap(m map[string]any, depth int) error {
	if depth > maxPropertyDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrInvalidProperties, maxPropertyDepth)
	}
	if len(m) > maxPropertyKeys {
		return fmt.Errorf("%w: more than %d keys", ErrInvalidProperties, maxPropertyKeys)
	}
	for k, v := range m {
		switch val := v.(type) {
		case string:
			if len(val) > maxStringValueLen {
				return fmt.Errorf("%w: value of %q exceeds %d characters", ErrInvalidProperties, k, maxStringValueLen)
			}
		case bool:
		case float64:
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return fmt.Errorf("%w: value of %q is not finite", ErrInvalidProperties, k)
			}
		case float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		case map[string]any:
			if err := validatePropertyMap(val, depth+1); err != nil {
				return err
			}
		case Properties:
			if err := validatePropertyMap(val, depth+1); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: value of %q has unsupported kind %T", ErrInvalidProperties, k, v)
		}
	}
	return nil
}
