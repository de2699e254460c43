// Package api implements the HTTP API and WebSocket event stream.
//
// The API mirrors the console: device control, on-demand sensor readings,
// status reports, free-text commands and the automation mode switch are
// all available over HTTP, served by the same registry, gateway and
// dispatcher the console uses.
//
// # Endpoints
//
// All routes are under /api/v1:
//
//	GET  /health                  component health (ok or degraded)
//	GET  /metrics                 runtime, device and loop counters
//	GET  /status                  status snapshot and rendered report
//	GET  /devices                 all devices
//	GET  /devices/stats           on/off counts
//	GET  /devices/{name}          one device
//	POST /devices/{name}/on       switch on
//	POST /devices/{name}/off      switch off
//	GET  /sensors/{kind}          fresh reading
//	POST /command                 {"text": "..."} through the dispatcher
//	GET  /automation              mode and loop stats
//	PUT  /automation              {"auto": true|false}
//	GET  /journal                 recorded events
//	GET  /ws                      WebSocket event stream
//
// # Errors
//
// Unknown devices and sensor kinds are 404. A relay that fails or does
// not answer is 502. Disabled sensors are 409.
//
// # Events
//
// The Hub observes the registry, the gateway and the mode switch and
// broadcasts on the device.changed, sensor.reading, mode.changed,
// announcement and alert channels. Clients subscribe to everything
// unless they pass ?channels=.
//
// There is no authentication; bind the server to a trusted interface.
package api
