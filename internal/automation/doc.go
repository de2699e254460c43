// Package automation runs the background rule loop that keeps the room
// comfortable and safe while the controller is in auto mode.
//
// Architecture:
//
//	┌───────────────────────────────────────────────┐
//	│                 Loop (loop.go)                │
//	│  every interval, when Mode is auto:           │
//	│   1. temperature: fan on above FanOn,         │
//	│      off below FanOff                         │
//	│   2. light: light on below LightOn,           │
//	│      off above LightOff                       │
//	│   3. gas: exhaust on above Alert, critical    │
//	│      notification above Critical (cooldown),  │
//	│      exhaust off below Clear                  │
//	└───────────────────────────────────────────────┘
//
// Each rule reads its own sensor; a failed read skips only that rule.
// A panic inside a tick is recovered as ErrUncaughtAutomation and the next
// tick waits the backoff interval instead of the normal one.
//
// The gaps between on and off thresholds are dead bands: with the default
// 35/30 temperature pair, readings of 36, 32, 29 switch the fan on, leave
// it on, then switch it off.
package automation
