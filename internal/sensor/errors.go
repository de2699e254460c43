package sensor

import (
	"errors"
	"fmt"
)

var (
	// ErrSensorUnavailable is returned when a fresh reading could not be obtained.
	// Callers treat the value as unknown; a cached reading is never substituted.
	ErrSensorUnavailable = errors.New("sensor: unavailable")

	// ErrSensorDisabled is returned for kinds disabled in configuration.
	ErrSensorDisabled = fmt.Errorf("%w: disabled", ErrSensorUnavailable)

	// ErrUnknownKind is returned for kinds the gateway has no input line for.
	ErrUnknownKind = fmt.Errorf("%w: unknown kind", ErrSensorUnavailable)
)
