// Package assistant dispatches classified commands: it is the single path
// from console, voice, HTTP and MQTT text input to device actuation,
// sensor queries, status reports and the automation switch.
//
//	d := assistant.NewDispatcher(interp, registry, gateway, reporter, mode, book, opts)
//	resp := d.Handle(ctx, "turn on the fan")
//	for _, line := range resp.Messages {
//	    fmt.Println(line)
//	}
package assistant
