package relay

import "errors"

// Sentinel errors for relay operations.
//
//	if errors.Is(err, relay.ErrRejected) {
//	    // relay answered but refused the command
//	}
var (
	// ErrRequestFailed indicates a transport failure or timeout.
	ErrRequestFailed = errors.New("relay: request failed")

	// ErrBadStatus indicates a non-200 HTTP status.
	ErrBadStatus = errors.New("relay: unexpected status")

	// ErrRejected indicates the relay replied with success other than 1.
	ErrRejected = errors.New("relay: command rejected")

	// ErrInvalidResponse indicates a reply that carried no usable value.
	ErrInvalidResponse = errors.New("relay: invalid response")
)
