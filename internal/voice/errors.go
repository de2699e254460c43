package voice

import "errors"

var (
	// ErrRecognitionFailed is returned when no usable text came out of a
	// listening attempt. It is transient: the console reports it and continues.
	ErrRecognitionFailed = errors.New("voice: recognition failed")

	// ErrDisabled is returned when voice input is not configured.
	ErrDisabled = errors.New("voice: disabled in configuration")
)
