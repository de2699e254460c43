package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrUnknownDevice) {
//	    // name not in the registry, no relay call was made
//	}
var (
	// ErrUnknownDevice is returned when a device name is not configured.
	ErrUnknownDevice = errors.New("device: unknown device")

	// ErrActuationFailed is returned when the relay did not acknowledge a command.
	// The cause (status, transport error, timeout) is wrapped alongside it.
	ErrActuationFailed = errors.New("device: actuation failed")
)
