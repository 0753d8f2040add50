package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrNotOwner is returned when a player mutates a device they do not own
	// while ownership enforcement is enabled.
	ErrNotOwner = errors.New("device: requester is not the owner")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidDeviceType is returned when a device type is not recognised.
	ErrInvalidDeviceType = errors.New("device: invalid type")

	// ErrInvalidState is returned when a device state is not recognised.
	ErrInvalidState = errors.New("device: invalid state")

	// ErrInvalidProperties is returned when special properties hold a value
	// of a kind outside string, number, boolean and nested map.
	ErrInvalidProperties = errors.New("device: invalid special properties")

	// ErrInvalidConnection is returned for self-connections.
	ErrInvalidConnection = errors.New("device: invalid connection")
)
