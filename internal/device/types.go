package device

import "sort"

// DeviceType classifies a grid device.
type DeviceType string

// Device types placed by players.
const (
	TypeGenerator   DeviceType = "generator"
	TypeBattery     DeviceType = "battery"
	TypeSolarPanel  DeviceType = "solar_panel"
	TypeWindTurbine DeviceType = "wind_turbine"
	TypePowerLine   DeviceType = "power_line"
	TypeTransformer DeviceType = "transformer"
	TypeConsumer    DeviceType = "consumer"
	TypeSwitch      DeviceType = "switch"
)

// AllDeviceTypes returns every recognised device type.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		TypeGenerator, TypeBattery, TypeSolarPanel, TypeWindTurbine,
		TypePowerLine, TypeTransformer, TypeConsumer, TypeSwitch,
	}
}

// IsSource reports whether devices of this type feed power into a network.
func (t DeviceType) IsSource() bool {
	switch t {
	case TypeGenerator, TypeBattery, TypeSolarPanel, TypeWindTurbine:
		return true
	default:
		return false
	}
}

// State is the operating state of a device.
type State string

// Device states.
const (
	StateOffline     State = "offline"
	StateOnline      State = "online"
	StateMaintenance State = "maintenance"
	StateOverloaded  State = "overloaded"
	StateDamaged     State = "damaged"
)

// AllStates returns every recognised device state.
func AllStates() []State {
	return []State{StateOffline, StateOnline, StateMaintenance, StateOverloaded, StateDamaged}
}

// Default values applied to fields a creator leaves unset.
const (
	DefaultMaxPower         = 100.0
	DefaultEfficiency       = 1.0
	DefaultHealthPercentage = 100.0
)

// Position is a grid coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Properties is an open string-keyed map of device-specific values.
// Values are limited to string, number, boolean and nested Properties-shaped
// maps so the map serialises the same way everywhere.
type Properties map[string]any

// Device is a player-placed grid entity.
//
// InputConnections and OutputConnections are sets of device ids, kept sorted.
type Device struct {
	ID                  string     `json:"deviceId"`
	Type                DeviceType `json:"deviceType"`
	Position            Position   `json:"position"`
	Rotation            float64    `json:"rotation"`
	State               State      `json:"state"`
	OwnerID             string     `json:"ownerId"`
	PowerOutput         float64    `json:"powerOutput"`
	PowerInput          float64    `json:"powerInput"`
	MaxPower            float64    `json:"maxPower"`
	Efficiency          float64    `json:"efficiency"`
	InputConnections    []string   `json:"inputConnections"`
	OutputConnections   []string   `json:"outputConnections"`
	LastMaintenanceTime int64      `json:"lastMaintenanceTime"` // unix milliseconds
	HealthPercentage    float64    `json:"healthPercentage"`
	IsUpgraded          bool       `json:"isUpgraded"`
	SpecialProperties   Properties `json:"specialProperties"`
}

// DeepCopy returns a copy of the device that shares no mutable state.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	cpy.InputConnections = copyStrings(d.InputConnections)
	cpy.OutputConnections = copyStrings(d.OutputConnections)
	cpy.SpecialProperties = Properties(deepCopyMap(d.SpecialProperties))
	return &cpy
}

// Draft carries the client-supplied fields of a device being created.
// Nil pointer fields take the documented defaults.
type Draft struct {
	ID                string     `json:"deviceId"`
	Type              DeviceType `json:"deviceType"`
	Position          Position   `json:"position"`
	Rotation          float64    `json:"rotation"`
	State             *State     `json:"state,omitempty"`
	PowerOutput       *float64   `json:"powerOutput,omitempty"`
	PowerInput        *float64   `json:"powerInput,omitempty"`
	MaxPower          *float64   `json:"maxPower,omitempty"`
	Efficiency        *float64   `json:"efficiency,omitempty"`
	HealthPercentage  *float64   `json:"healthPercentage,omitempty"`
	IsUpgraded        *bool      `json:"isUpgraded,omitempty"`
	SpecialProperties Properties `json:"specialProperties,omitempty"`
}

// Patch is a field-level overwrite of a stored device. Nil fields are left
// unchanged. Identity, ownership and connections cannot be patched.
type Patch struct {
	Type                *DeviceType `json:"deviceType,omitempty"`
	Position            *Position   `json:"position,omitempty"`
	Rotation            *float64    `json:"rotation,omitempty"`
	State               *State      `json:"state,omitempty"`
	PowerOutput         *float64    `json:"powerOutput,omitempty"`
	PowerInput          *float64    `json:"powerInput,omitempty"`
	MaxPower            *float64    `json:"maxPower,omitempty"`
	Efficiency          *float64    `json:"efficiency,omitempty"`
	LastMaintenanceTime *int64      `json:"lastMaintenanceTime,omitempty"`
	HealthPercentage    *float64    `json:"healthPercentage,omitempty"`
	IsUpgraded          *bool       `json:"isUpgraded,omitempty"`
	SpecialProperties   Properties  `json:"specialProperties,omitempty"`
}

// apply overwrites the fields of d that are set in p.
func (p Patch) apply(d *Device) {
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Position != nil {
		d.Position = *p.Position
	}
	if p.Rotation != nil {
		d.Rotation = *p.Rotation
	}
	if p.State != nil {
		d.State = *p.State
	}
	if p.PowerOutput != nil {
		d.PowerOutput = *p.PowerOutput
	}
	if p.PowerInput != nil {
		d.PowerInput = *p.PowerInput
	}
	if p.MaxPower != nil {
		d.MaxPower = *p.MaxPower
	}
	if p.Efficiency != nil {
		d.Efficiency = *p.Efficiency
	}
	if p.LastMaintenanceTime != nil {
		d.LastMaintenanceTime = *p.LastMaintenanceTime
	}
	if p.HealthPercentage != nil {
		d.HealthPercentage = *p.HealthPercentage
	}
	if p.IsUpgraded != nil {
		d.IsUpgraded = *p.IsUpgraded
	}
	if p.SpecialProperties != nil {
		d.SpecialProperties = Properties(deepCopyMap(p.SpecialProperties))
	}
}

// PowerFlow is the power carried along one connection.
type PowerFlow struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// PowerNetwork aggregates one connected component of the connection graph.
type PowerNetwork struct {
	ID                    string      `json:"networkId"`
	ConnectedDevices      []string    `json:"connectedDevices"`
	TotalPowerGeneration  float64     `json:"totalPowerGeneration"`
	TotalPowerConsumption float64     `json:"totalPowerConsumption"`
	NetworkEfficiency     float64     `json:"networkEfficiency"`
	IsStable              bool        `json:"isStable"`
	PowerFlow             []PowerFlow `json:"powerFlow"`
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case Properties:
		return Properties(deepCopyMap(val))
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}

func copyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	cpy := make([]string, len(s))
	copy(cpy, s)
	return cpy
}

// addToSet inserts id into the sorted set s, returning the new set.
func addToSet(s []string, id string) []string {
	i := sort.SearchStrings(s, id)
	if i < len(s) && s[i] == id {
		return s
	}
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = id
	return s
}

// removeFromSet deletes id from the sorted set s, returning the new set.
func removeFromSet(s []string, id string) []string {
	i := sort.SearchStrings(s, id)
	if i >= len(s) || s[i] != id {
		return s
	}
	return append(s[:i], s[i+1:]...)
}

// normaliseSet sorts and de-duplicates ids.
func normaliseSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = addToSet(out, id)
	}
	return out
}
