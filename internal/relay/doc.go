// Package relay is the HTTP client for the cloud IoT relay (Bolt cloud)
// that bridges the controller to the physical board.
//
// The relay exposes two calls:
//
//	GET {base}/{api_key}/digitalWrite?pin=N&state=HIGH|LOW&deviceName=ID
//	GET {base}/{api_key}/analogRead?pin=A0&deviceName=ID
//
// Both reply with JSON such as {"success":1,"value":"512"}. The relay is
// treated as an opaque request/response service: one request per call,
// a fixed timeout, no retry.
package relay
