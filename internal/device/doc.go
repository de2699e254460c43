// Package device provides the Device Registry for the M.U.K.H.T.A.R controller.
//
// The registry owns the on/off state of every configured actuator (light,
// fan, exhaust, plug by default) and is the only place relay digitalWrite
// calls are issued. It is shared by the console dispatcher, the automation
// loop, the HTTP API and the MQTT command handler.
//
// # Semantics
//
//   - TurnOn/TurnOff issue exactly one relay call. No batching, no retry.
//   - Unknown names return ErrUnknownDevice without touching the relay.
//   - A failed call returns ErrActuationFailed and leaves local state unchanged.
//   - On success local state is set optimistically; nothing reads it back.
//
// # Usage
//
//	registry := device.NewRegistry(relayClient, cfg.Devices)
//	registry.SetLogger(log)
//	registry.AddObserver(journal)
//
//	if err := registry.TurnOn(ctx, "fan"); err != nil {
//	    return err
//	}
package device
