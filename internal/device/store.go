package device

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store owns the canonical state of every grid device.
//
// A single mutex serialises writers, so no two mutations of the same device
// can interleave between their read and their write. Readers share the lock
// and always observe a fully applied mutation.
type Store struct {
	mu      sync.RWMutex
	devices map[string]*Device

	enforceOwnership bool
	now              func() time.Time
	logger           Logger
}

// Option configures a Store.
type Option func(*Store)

// WithOwnershipEnforcement makes update, delete, maintenance and connection
// changes fail with ErrNotOwner unless the requester owns the device.
func WithOwnershipEnforcement(enforce bool) Option {
	return func(s *Store) { s.enforceOwnership = enforce }
}

// WithClock replaces the time source used for maintenance timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty device store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		devices: make(map[string]*Device),
		now:     time.Now,
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// EnforcesOwnership reports whether ownership checks are active.
func (s *Store) EnforcesOwnership() bool {
	return s.enforceOwnership
}

// Create builds a device from draft, owned by ownerID, and stores it under
// draft.ID. Unset draft fields take the defaults. Creating an id that is
// already present fails with ErrDeviceExists and leaves the store untouched.
func (s *Store) Create(draft Draft, ownerID string) (Device, error) {
	d := &Device{
		ID:                  draft.ID,
		Type:                draft.Type,
		Position:            draft.Position,
		Rotation:            draft.Rotation,
		State:               StateOffline,
		OwnerID:             ownerID,
		MaxPower:            DefaultMaxPower,
		Efficiency:          DefaultEfficiency,
		InputConnections:    []string{},
		OutputConnections:   []string{},
		LastMaintenanceTime: s.now().UnixMilli(),
		HealthPercentage:    DefaultHealthPercentage,
		SpecialProperties:   Properties{},
	}
	if draft.State != nil {
		d.State = *draft.State
	}
	if draft.PowerOutput != nil {
		d.PowerOutput = *draft.PowerOutput
	}
	if draft.PowerInput != nil {
		d.PowerInput = *draft.PowerInput
	}
	if draft.MaxPower != nil {
		d.MaxPower = *draft.MaxPower
	}
	if draft.Efficiency != nil {
		d.Efficiency = *draft.Efficiency
	}
	if draft.HealthPercentage != nil {
		d.HealthPercentage = *draft.HealthPercentage
	}
	if draft.IsUpgraded != nil {
		d.IsUpgraded = *draft.IsUpgraded
	}
	if draft.SpecialProperties != nil {
		d.SpecialProperties = Properties(deepCopyMap(draft.SpecialProperties))
	}

	if err := ValidateDevice(d); err != nil {
		return Device{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.devices[d.ID]; exists {
		return Device{}, fmt.Errorf("%w: %s", ErrDeviceExists, d.ID)
	}
	s.devices[d.ID] = d

	s.logger.Info("device created", "device_id", d.ID, "type", d.Type, "owner_id", ownerID)
	return *d.DeepCopy(), nil
}

// Update applies a field-level overwrite to the stored device and returns
// the result. The patch is validated as a whole; on failure nothing changes.
func (s *Store) Update(id string, patch Patch, requesterID string) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.ownedLocked(id, requesterID)
	if err != nil {
		return Device{}, err
	}

	updated := current.DeepCopy()
	patch.apply(updated)
	if err := ValidateDevice(updated); err != nil {
		return Device{}, err
	}
	s.devices[id] = updated

	s.logger.Debug("device updated", "device_id", id)
	return *updated.DeepCopy(), nil
}

// Delete removes the device and detaches it from every neighbour. It returns
// the removed device; its connection sets list the neighbours that changed.
func (s *Store) Delete(id, requesterID string) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.ownedLocked(id, requesterID)
	if err != nil {
		return Device{}, err
	}

	for _, in := range d.InputConnections {
		if n, ok := s.devices[in]; ok {
			n.OutputConnections = removeFromSet(n.OutputConnections, id)
		}
	}
	for _, out := range d.OutputConnections {
		if n, ok := s.devices[out]; ok {
			n.InputConnections = removeFromSet(n.InputConnections, id)
		}
	}
	delete(s.devices, id)

	s.logger.Info("device deleted", "device_id", id, "requester_id", requesterID)
	return *d.DeepCopy(), nil
}

// Connect records a directed connection from → to: to is added to
// from.OutputConnections and from to to.InputConnections. Connecting an
// existing pair is a no-op.
func (s *Store) Connect(fromID, toID, requesterID string) error {
	if fromID == toID {
		return fmt.Errorf("%w: %s cannot connect to itself", ErrInvalidConnection, fromID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := s.ownedLocked(fromID, requesterID)
	if err != nil {
		return err
	}
	to, ok := s.devices[toID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, toID)
	}

	from.OutputConnections = addToSet(from.OutputConnections, toID)
	to.InputConnections = addToSet(to.InputConnections, fromID)

	s.logger.Debug("devices connected", "from", fromID, "to", toID)
	return nil
}

// Disconnect removes the directed connection from → to from both devices.
// Disconnecting a pair that is not connected is a no-op.
func (s *Store) Disconnect(fromID, toID, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := s.ownedLocked(fromID, requesterID)
	if err != nil {
		return err
	}
	to, ok := s.devices[toID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, toID)
	}

	from.OutputConnections = removeFromSet(from.OutputConnections, toID)
	to.InputConnections = removeFromSet(to.InputConnections, fromID)

	s.logger.Debug("devices disconnected", "from", fromID, "to", toID)
	return nil
}

// StartMaintenance puts the device into the maintenance state.
func (s *Store) StartMaintenance(id, requesterID string) (Device, error) {
	state := StateMaintenance
	return s.Update(id, Patch{State: &state}, requesterID)
}

// CompleteMaintenance brings the device back online at full health and
// stamps the maintenance time.
func (s *Store) CompleteMaintenance(id, requesterID string) (Device, error) {
	state := StateOnline
	health := DefaultHealthPercentage
	now := s.now().UnixMilli()
	return s.Update(id, Patch{State: &state, HealthPercentage: &health, LastMaintenanceTime: &now}, requesterID)
}

// Get returns a copy of the device with the given id.
func (s *Store) Get(id string) (Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return Device{}, false
	}
	return *d.DeepCopy(), true
}

// List returns copies of all devices ordered by id.
func (s *Store) List() []Device {
	s.mu.RLock()
	out := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, *d.DeepCopy())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of stored devices.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// CheckConnections verifies that every connection references a stored
// device and that the graph is symmetric. It returns the first violation.
func (s *Store) CheckConnections() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, d := range s.devices {
		for _, out := range d.OutputConnections {
			n, ok := s.devices[out]
			if !ok {
				return fmt.Errorf("%w: %s outputs to missing device %s", ErrInvalidConnection, id, out)
			}
			if !containsSorted(n.InputConnections, id) {
				return fmt.Errorf("%w: %s→%s missing reverse input", ErrInvalidConnection, id, out)
			}
		}
		for _, in := range d.InputConnections {
			n, ok := s.devices[in]
			if !ok {
				return fmt.Errorf("%w: %s inputs from missing device %s", ErrInvalidConnection, id, in)
			}
			if !containsSorted(n.OutputConnections, id) {
				return fmt.Errorf("%w: %s←%s missing reverse output", ErrInvalidConnection, id, in)
			}
		}
	}
	return nil
}

// ownedLocked returns the stored device after the ownership check.
// The caller must hold the write lock.
func (s *Store) ownedLocked(id, requesterID string) (*Device, error) {
	d, ok := s.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if s.enforceOwnership && d.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrNotOwner, id, d.OwnerID)
	}
	return d, nil
}

func containsSorted(s []string, id string) bool {
	i := sort.SearchStrings(s, id)
	return i < len(s) && s[i] == id
}
