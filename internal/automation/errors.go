package automation

import "errors"

// ErrUncaughtAutomation wraps a panic recovered from a tick.
// It is logged and followed by a backoff, never fatal.
var ErrUncaughtAutomation = errors.New("automation: uncaught error in tick")
